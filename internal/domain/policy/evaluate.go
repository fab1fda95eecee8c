package policy

import (
	"net"
	"strconv"
	"time"
)

// ClientContext is the snapshot of a connecting client that conditions are
// evaluated against. Now and Location are injected so evaluation stays a
// pure function.
type ClientContext struct {
	RemoteIP   net.IP
	Country    string
	Verified   bool
	ProviderID string
	Now        time.Time
	// Location is the account's wall-clock timezone for time-of-day
	// conditions. Nil means UTC.
	Location *time.Location
}

// EnsureConforms evaluates every condition independently. When all hold it
// returns the condition-imposed expiry: the earliest instant any condition
// stops holding, or nil when no condition is time-bounded. When any fails it
// returns the deduplicated property names of the failing conditions; values
// are never included so error responses cannot leak policy internals.
//
// A policy with zero conditions always conforms with a nil expiry.
func EnsureConforms(conditions []Condition, client ClientContext) (expiresAt *time.Time, violated []Property) {
	seen := make(map[Property]bool)

	for _, cond := range conditions {
		ok, condExpiry := evalCondition(cond, client)
		if !ok {
			if !seen[cond.Property] {
				seen[cond.Property] = true
				violated = append(violated, cond.Property)
			}
			continue
		}
		if condExpiry != nil && (expiresAt == nil || condExpiry.Before(*expiresAt)) {
			expiresAt = condExpiry
		}
	}

	if len(violated) > 0 {
		return nil, violated
	}
	return expiresAt, nil
}

// evalCondition evaluates a single condition. Conditions with no temporal
// component return a nil expiry; time-of-day conditions return the instant
// the current window closes.
func evalCondition(cond Condition, client ClientContext) (bool, *time.Time) {
	switch cond.Property {
	case PropertyRemoteIP:
		return evalRemoteIP(cond, client.RemoteIP), nil
	case PropertyCountry:
		return evalMembership(cond, client.Country), nil
	case PropertyProviderID:
		return evalMembership(cond, client.ProviderID), nil
	case PropertyClientVerified:
		return evalVerified(cond, client.Verified), nil
	case PropertyTimeOfDay:
		return evalTimeOfDay(cond, client)
	default:
		// Unknown properties never conform; Validate rejects them before
		// persistence, so this only guards against skew between versions.
		return false, nil
	}
}

func evalRemoteIP(cond Condition, ip net.IP) bool {
	if ip == nil {
		return false
	}
	contained := false
	for _, v := range cond.Values {
		_, cidr, err := net.ParseCIDR(v)
		if err != nil {
			continue
		}
		if cidr.Contains(ip) {
			contained = true
			break
		}
	}
	if cond.Operator == OperatorIsNotInCIDR {
		return !contained
	}
	return contained
}

func evalMembership(cond Condition, value string) bool {
	if value == "" {
		return cond.Operator == OperatorIsNotIn
	}
	contained := false
	for _, v := range cond.Values {
		if v == value {
			contained = true
			break
		}
	}
	if cond.Operator == OperatorIsNotIn {
		return !contained
	}
	return contained
}

func evalVerified(cond Condition, verified bool) bool {
	want := true
	if len(cond.Values) > 0 {
		if parsed, err := strconv.ParseBool(cond.Values[0]); err == nil {
			want = parsed
		}
	}
	return verified == want
}

// evalTimeOfDay holds when the client's wall clock falls inside any window.
// The condition's expiry is the latest end bound among the windows covering
// now, because the condition keeps holding across overlapping windows.
func evalTimeOfDay(cond Condition, client ClientContext) (bool, *time.Time) {
	loc := client.Location
	if loc == nil {
		loc = time.UTC
	}
	local := client.Now.In(loc)
	minuteOfDay := local.Hour()*60 + local.Minute()

	var expiry *time.Time
	for _, v := range cond.Values {
		w, err := parseWindow(v)
		if err != nil {
			continue
		}
		if w.weekday != nil && *w.weekday != local.Weekday() {
			continue
		}
		start := w.startH*60 + w.startM
		end := w.endH*60 + w.endM
		if minuteOfDay < start || minuteOfDay >= end {
			continue
		}
		endInstant := time.Date(local.Year(), local.Month(), local.Day(), w.endH, w.endM, 0, 0, loc).UTC()
		if expiry == nil || endInstant.After(*expiry) {
			expiry = &endInstant
		}
	}
	if expiry == nil {
		return false, nil
	}
	return true, expiry
}
