package policy

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Property names the client attribute a condition constrains. Property names
// are safe to surface in error responses; condition values are not.
type Property string

const (
	PropertyRemoteIP       Property = "remote_ip"
	PropertyCountry        Property = "country"
	PropertyClientVerified Property = "client_verified"
	PropertyTimeOfDay      Property = "time_of_day"
	PropertyProviderID     Property = "provider_id"
)

// Operator names how the condition values are compared against the client.
type Operator string

const (
	OperatorIs          Operator = "is"
	OperatorIsIn        Operator = "is_in"
	OperatorIsNotIn     Operator = "is_not_in"
	OperatorIsInCIDR    Operator = "is_in_cidr"
	OperatorIsNotInCIDR Operator = "is_not_in_cidr"
	OperatorInWindows   Operator = "is_in_time_windows"
)

// Condition is one predicate on a policy. All of a policy's conditions must
// hold for the policy to conform.
type Condition struct {
	Property Property `json:"property"`
	Operator Operator `json:"operator"`
	Values   []string `json:"values"`
}

var validOperators = map[Property][]Operator{
	PropertyRemoteIP:       {OperatorIsInCIDR, OperatorIsNotInCIDR},
	PropertyCountry:        {OperatorIsIn, OperatorIsNotIn},
	PropertyClientVerified: {OperatorIs},
	PropertyTimeOfDay:      {OperatorInWindows},
	PropertyProviderID:     {OperatorIsIn, OperatorIsNotIn},
}

// Validate checks the condition shape: known property, an operator allowed
// for it, and parseable values.
func (c Condition) Validate() error {
	ops, ok := validOperators[c.Property]
	if !ok {
		return fmt.Errorf("unknown condition property: %s", c.Property)
	}
	allowed := false
	for _, op := range ops {
		if op == c.Operator {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("operator %s is not valid for property %s", c.Operator, c.Property)
	}
	if len(c.Values) == 0 && c.Property != PropertyClientVerified {
		return fmt.Errorf("condition on %s requires at least one value", c.Property)
	}

	switch c.Property {
	case PropertyRemoteIP:
		for _, v := range c.Values {
			if _, _, err := net.ParseCIDR(v); err != nil {
				return fmt.Errorf("invalid CIDR %q: %w", v, err)
			}
		}
	case PropertyTimeOfDay:
		for _, v := range c.Values {
			if _, err := parseWindow(v); err != nil {
				return fmt.Errorf("invalid time window %q: %w", v, err)
			}
		}
	}
	return nil
}

// window is a parsed wall-clock range, optionally limited to one weekday.
type window struct {
	weekday *time.Weekday
	startH  int
	startM  int
	endH    int
	endM    int
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// parseWindow parses "HH:MM-HH:MM" or "ddd:HH:MM-HH:MM" (e.g.
// "mon:09:00-17:00"). The end bound "24:00" means end of day.
func parseWindow(s string) (window, error) {
	var w window
	rest := s
	if len(s) > 4 && s[3] == ':' {
		day, ok := weekdayNames[strings.ToLower(s[:3])]
		if !ok {
			return w, fmt.Errorf("unknown weekday %q", s[:3])
		}
		w.weekday = &day
		rest = s[4:]
	}

	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return w, fmt.Errorf("expected HH:MM-HH:MM")
	}
	var err error
	w.startH, w.startM, err = parseClock(parts[0])
	if err != nil {
		return w, err
	}
	w.endH, w.endM, err = parseClock(parts[1])
	if err != nil {
		return w, err
	}
	if w.endH*60+w.endM <= w.startH*60+w.startM {
		return w, fmt.Errorf("window end must be after start")
	}
	return w, nil
}

func parseClock(s string) (int, int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, 0, fmt.Errorf("clock %q out of range", s)
	}
	return h, m, nil
}
