package policy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 is a Monday.
var testNow = time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

func testClient() ClientContext {
	return ClientContext{
		RemoteIP:   net.ParseIP("10.1.2.3"),
		Country:    "DE",
		Verified:   true,
		ProviderID: "prov-1",
		Now:        testNow,
	}
}

func TestEnsureConforms_Table(t *testing.T) {
	tests := []struct {
		name         string
		conditions   []Condition
		client       func(c ClientContext) ClientContext
		wantConform  bool
		wantViolated []Property
		wantExpiry   *time.Time
	}{
		{
			name:        "zero conditions conform with nil expiry",
			conditions:  nil,
			wantConform: true,
		},
		{
			name: "remote ip inside cidr",
			conditions: []Condition{
				{Property: PropertyRemoteIP, Operator: OperatorIsInCIDR, Values: []string{"10.0.0.0/8"}},
			},
			wantConform: true,
		},
		{
			name: "remote ip outside every cidr",
			conditions: []Condition{
				{Property: PropertyRemoteIP, Operator: OperatorIsInCIDR, Values: []string{"192.168.0.0/16", "172.16.0.0/12"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyRemoteIP},
		},
		{
			name: "is_not_in_cidr rejects contained ip",
			conditions: []Condition{
				{Property: PropertyRemoteIP, Operator: OperatorIsNotInCIDR, Values: []string{"10.0.0.0/8"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyRemoteIP},
		},
		{
			name: "is_not_in_cidr passes outside ip",
			conditions: []Condition{
				{Property: PropertyRemoteIP, Operator: OperatorIsNotInCIDR, Values: []string{"192.168.0.0/16"}},
			},
			wantConform: true,
		},
		{
			name: "missing ip fails closed even for is_not_in_cidr",
			conditions: []Condition{
				{Property: PropertyRemoteIP, Operator: OperatorIsNotInCIDR, Values: []string{"192.168.0.0/16"}},
			},
			client:       func(c ClientContext) ClientContext { c.RemoteIP = nil; return c },
			wantConform:  false,
			wantViolated: []Property{PropertyRemoteIP},
		},
		{
			name: "country membership",
			conditions: []Condition{
				{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"DE", "FR"}},
			},
			wantConform: true,
		},
		{
			name: "absent country fails is_in",
			conditions: []Condition{
				{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"DE"}},
			},
			client:       func(c ClientContext) ClientContext { c.Country = ""; return c },
			wantConform:  false,
			wantViolated: []Property{PropertyCountry},
		},
		{
			name: "absent country passes is_not_in",
			conditions: []Condition{
				{Property: PropertyCountry, Operator: OperatorIsNotIn, Values: []string{"KP"}},
			},
			client:      func(c ClientContext) ClientContext { c.Country = ""; return c },
			wantConform: true,
		},
		{
			name: "verified condition defaults to wanting true",
			conditions: []Condition{
				{Property: PropertyClientVerified, Operator: OperatorIs},
			},
			client:       func(c ClientContext) ClientContext { c.Verified = false; return c },
			wantConform:  false,
			wantViolated: []Property{PropertyClientVerified},
		},
		{
			name: "verified false wanted and client unverified",
			conditions: []Condition{
				{Property: PropertyClientVerified, Operator: OperatorIs, Values: []string{"false"}},
			},
			client:      func(c ClientContext) ClientContext { c.Verified = false; return c },
			wantConform: true,
		},
		{
			name: "window covering now bounds the grant at its end",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-17:00"}},
			},
			wantConform: true,
			wantExpiry:  timePtr(time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)),
		},
		{
			name: "window start is inclusive",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"10:30-11:00"}},
			},
			wantConform: true,
			wantExpiry:  timePtr(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)),
		},
		{
			name: "window end is exclusive",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-10:30"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyTimeOfDay},
		},
		{
			name: "overlapping windows keep the latest end",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-11:00", "10:00-18:00"}},
			},
			wantConform: true,
			wantExpiry:  timePtr(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)),
		},
		{
			name: "weekday-limited window on the wrong day",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"tue:09:00-17:00"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyTimeOfDay},
		},
		{
			name: "matching weekday window conforms",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"mon:09:00-17:00"}},
			},
			wantConform: true,
			wantExpiry:  timePtr(time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)),
		},
		{
			name: "earliest bound across conditions wins",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-17:00"}},
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"10:00-12:00"}},
			},
			wantConform: true,
			wantExpiry:  timePtr(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		},
		{
			name: "violated properties are deduplicated",
			conditions: []Condition{
				{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"FR"}},
				{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"IT"}},
				{Property: PropertyProviderID, Operator: OperatorIsIn, Values: []string{"prov-9"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyCountry, PropertyProviderID},
		},
		{
			name: "any failure discards bounds from passing conditions",
			conditions: []Condition{
				{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-17:00"}},
				{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"FR"}},
			},
			wantConform:  false,
			wantViolated: []Property{PropertyCountry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient()
			if tt.client != nil {
				client = tt.client(client)
			}

			expiry, violated := EnsureConforms(tt.conditions, client)

			if tt.wantConform {
				require.Empty(t, violated)
				if tt.wantExpiry == nil {
					assert.Nil(t, expiry)
				} else {
					require.NotNil(t, expiry)
					assert.True(t, expiry.Equal(*tt.wantExpiry), "expiry = %v, want %v", expiry, tt.wantExpiry)
				}
			} else {
				assert.Nil(t, expiry, "failed evaluation must not return a bound")
				assert.Equal(t, tt.wantViolated, violated)
			}
		})
	}
}

func TestEnsureConforms_TimezoneWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 14:30 UTC is 09:30 in New York on 2024-01-01.
	client := testClient()
	client.Now = time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	client.Location = loc

	conditions := []Condition{
		{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-17:00"}},
	}
	expiry, violated := EnsureConforms(conditions, client)
	require.Empty(t, violated)
	require.NotNil(t, expiry)
	// 17:00 New York is 22:00 UTC.
	assert.True(t, expiry.Equal(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)), "expiry = %v", expiry)
}

func timePtr(t time.Time) *time.Time { return &t }
