package policy

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/errors"
)

// Conforming pairs a policy with its condition-imposed expiry. A nil expiry
// means the policy grants unconditionally for as long as the session lasts.
type Conforming struct {
	Policy    *Policy
	ExpiresAt *time.Time
}

// LongestConforming evaluates every candidate policy against the client and
// returns the one whose grant lasts longest, together with the final flow
// expiry capped by authorizedUntil (the authorizing token's expiry, or the
// original flow's expiry on reauthorization).
//
// A nil condition expiry outranks every bounded one: an unconditional grant
// always wins. When no policy conforms the error carries the union of
// violated property names across all candidates, deduplicated, so the caller
// gets one reason set instead of one error per policy.
func LongestConforming(policies []*Policy, client ClientContext, authorizedUntil time.Time) (*Policy, time.Time, error) {
	var (
		best         *Conforming
		violatedSeen = make(map[Property]bool)
		violatedAll  []string
	)

	for _, p := range policies {
		expiry, violated := EnsureConforms(p.Conditions(), client)
		if len(violated) > 0 {
			for _, prop := range violated {
				if !violatedSeen[prop] {
					violatedSeen[prop] = true
					violatedAll = append(violatedAll, string(prop))
				}
			}
			continue
		}
		candidate := &Conforming{Policy: p, ExpiresAt: expiry}
		if best == nil || outlasts(candidate, best) {
			best = candidate
		}
	}

	if best == nil {
		return nil, time.Time{}, errors.NewForbiddenConditionsError(violatedAll)
	}

	return best.Policy, PickExpiry(best.ExpiresAt, &authorizedUntil), nil
}

// outlasts reports whether a's grant lasts longer than b's, treating a nil
// expiry as positive infinity.
func outlasts(a, b *Conforming) bool {
	if a.ExpiresAt == nil {
		return b.ExpiresAt != nil
	}
	if b.ExpiresAt == nil {
		return false
	}
	return a.ExpiresAt.After(*b.ExpiresAt)
}

// PickExpiry returns the earlier of the two expiries, treating nil as
// unbounded. Both inputs nil is a programmer error: a token always has an
// expiry, so a flow can never be unbounded.
func PickExpiry(conditionExpiry, authorizedUntil *time.Time) time.Time {
	switch {
	case conditionExpiry == nil && authorizedUntil == nil:
		panic("policy: both condition expiry and authorization cap are nil")
	case conditionExpiry == nil:
		return *authorizedUntil
	case authorizedUntil == nil:
		return *conditionExpiry
	case conditionExpiry.Before(*authorizedUntil):
		return *conditionExpiry
	default:
		return *authorizedUntil
	}
}
