package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T, name, version string, loc *Location) *Gateway {
	t.Helper()
	g, err := NewGateway(1, 1, name, "pk-"+name)
	require.NoError(t, err)
	g.Seen(version, "198.51.100.1", loc)
	return g
}

var (
	nycGeo = &Location{Lat: 40.7128, Lon: -74.0060}
	laGeo  = &Location{Lat: 34.0522, Lon: -118.2437}
	bosGeo = &Location{Lat: 42.3601, Lon: -71.0589}
)

func TestSelectGateway_EmptyCandidates(t *testing.T) {
	assert.Nil(t, SelectGateway(nycGeo, nil, nil))
}

func TestSelectGateway_PreferredNarrowsCandidates(t *testing.T) {
	a := testGateway(t, "a", "1.0.0", nycGeo)
	b := testGateway(t, "b", "1.0.0", nycGeo)

	for i := 0; i < 50; i++ {
		picked := SelectGateway(nil, []*Gateway{a, b}, []string{b.SID()})
		assert.Same(t, b, picked)
	}
}

func TestSelectGateway_UnsatisfiablePreferenceFallsBack(t *testing.T) {
	a := testGateway(t, "a", "1.0.0", nycGeo)
	b := testGateway(t, "b", "1.0.0", nycGeo)

	picked := SelectGateway(nil, []*Gateway{a, b}, []string{"gw_nonexistent"})
	require.NotNil(t, picked)
	assert.Contains(t, []*Gateway{a, b}, picked)
}

func TestSelectGateway_NoGeoPicksFromAll(t *testing.T) {
	a := testGateway(t, "a", "1.0.0", nycGeo)
	b := testGateway(t, "b", "2.0.0", laGeo)

	seen := map[*Gateway]bool{}
	for i := 0; i < 200; i++ {
		picked := SelectGateway(nil, []*Gateway{a, b}, nil)
		require.NotNil(t, picked)
		seen[picked] = true
	}
	// Without a location the pick ignores distance and version.
	assert.Len(t, seen, 2)
}

// A client in New York must always get the newest New York gateway: nearest
// coordinate group first, then highest version within it.
func TestSelectGateway_NearestGroupThenHighestVersion(t *testing.T) {
	nycOld := testGateway(t, "nyc-old", "1.2.0", nycGeo)
	nycNew := testGateway(t, "nyc-new", "1.3.0", nycGeo)
	laNewest := testGateway(t, "la-newest", "1.4.0", laGeo)

	client := &Location{Lat: 40.73, Lon: -73.99}
	for i := 0; i < 200; i++ {
		picked := SelectGateway(client, []*Gateway{nycOld, nycNew, laNewest}, nil)
		assert.Same(t, nycNew, picked)
	}
}

func TestSelectGateway_UnlocatedLosesToAnyLocated(t *testing.T) {
	located := testGateway(t, "bos", "1.0.0", bosGeo)
	unlocated := testGateway(t, "mystery", "9.9.9", nil)

	for i := 0; i < 100; i++ {
		picked := SelectGateway(nycGeo, []*Gateway{unlocated, located}, nil)
		assert.Same(t, located, picked)
	}
}

func TestSelectGateway_OnlyUnlocatedStillSelectable(t *testing.T) {
	unlocated := testGateway(t, "mystery", "1.0.0", nil)
	assert.Same(t, unlocated, SelectGateway(nycGeo, []*Gateway{unlocated}, nil))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.3.0", "1.3.0", 0},
		{"1.3", "1.3.0", 0},
		{"v1.3.0", "1.3.0", 0},
		{"1.2.9", "1.3.0", -1},
		{"1.10.0", "1.9.9", 1},
		{"2.0.0", "1.99.99", 1},
		{"1.0.0-beta", "1.0.0-alpha", 1},
		{"", "0.0.1", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "CompareVersions(%q, %q)", tt.a, tt.b)
	}
}

func TestHaversineKm(t *testing.T) {
	// New York to Los Angeles is roughly 3940 km great-circle.
	d := haversineKm(nycGeo.Lat, nycGeo.Lon, laGeo.Lat, laGeo.Lon)
	assert.InDelta(t, 3940, d, 50)

	assert.Zero(t, haversineKm(nycGeo.Lat, nycGeo.Lon, nycGeo.Lat, nycGeo.Lon))
}
