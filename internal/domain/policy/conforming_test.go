package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordon-zt/cordon/internal/shared/errors"
)

func mustPolicy(t *testing.T, conditions []Condition) *Policy {
	t.Helper()
	p, err := NewPolicy(1, 2, 3, conditions, "")
	require.NoError(t, err)
	return p
}

func TestLongestConforming_UnconditionalOutranksBounded(t *testing.T) {
	bounded := mustPolicy(t, []Condition{
		{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-17:00"}},
	})
	unconditional := mustPolicy(t, nil)
	authorizedUntil := testNow.Add(24 * time.Hour)

	granted, expiresAt, err := LongestConforming(
		[]*Policy{bounded, unconditional}, testClient(), authorizedUntil,
	)
	require.NoError(t, err)
	assert.Same(t, unconditional, granted)
	assert.True(t, expiresAt.Equal(authorizedUntil), "unbounded grant must be capped by the authorization")
}

func TestLongestConforming_PicksLatestBound(t *testing.T) {
	short := mustPolicy(t, []Condition{
		{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-12:00"}},
	})
	long := mustPolicy(t, []Condition{
		{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-18:00"}},
	})
	authorizedUntil := testNow.Add(24 * time.Hour)

	granted, expiresAt, err := LongestConforming([]*Policy{short, long}, testClient(), authorizedUntil)
	require.NoError(t, err)
	assert.Same(t, long, granted)
	assert.True(t, expiresAt.Equal(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)), "expiresAt = %v", expiresAt)
}

func TestLongestConforming_TokenCapsConditionBound(t *testing.T) {
	p := mustPolicy(t, []Condition{
		{Property: PropertyTimeOfDay, Operator: OperatorInWindows, Values: []string{"09:00-18:00"}},
	})
	authorizedUntil := testNow.Add(30 * time.Minute)

	_, expiresAt, err := LongestConforming([]*Policy{p}, testClient(), authorizedUntil)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(authorizedUntil), "token expiry must cap the grant")
}

func TestLongestConforming_UnionsViolatedProperties(t *testing.T) {
	byCountry := mustPolicy(t, []Condition{
		{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"FR"}},
	})
	byCountryToo := mustPolicy(t, []Condition{
		{Property: PropertyCountry, Operator: OperatorIsIn, Values: []string{"IT"}},
	})
	byProvider := mustPolicy(t, []Condition{
		{Property: PropertyProviderID, Operator: OperatorIsIn, Values: []string{"prov-9"}},
	})

	_, _, err := LongestConforming(
		[]*Policy{byCountry, byCountryToo, byProvider}, testClient(), testNow.Add(time.Hour),
	)
	require.Error(t, err)

	fErr := errors.GetForbiddenError(err)
	require.NotNil(t, fErr)
	assert.Equal(t, []string{"country", "provider_id"}, fErr.Violated)
}

func TestPickExpiry(t *testing.T) {
	early := testNow.Add(time.Hour)
	late := testNow.Add(2 * time.Hour)

	assert.True(t, PickExpiry(&early, &late).Equal(early))
	assert.True(t, PickExpiry(&late, &early).Equal(early))
	assert.True(t, PickExpiry(nil, &late).Equal(late))
	assert.True(t, PickExpiry(&early, nil).Equal(early))

	assert.Panics(t, func() { PickExpiry(nil, nil) })
}
