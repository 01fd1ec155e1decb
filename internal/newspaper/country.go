package newspaper

import (
	"fmt"
	"strings"
)

// Country is a playable nation.
type Country string

const (
	USA     Country = "USA"
	UK      Country = "UK"
	Germany Country = "GERMANY"
)

// Countries lists the playable nations.
var Countries = []Country{USA, UK, Germany}

// ParseCountry accepts a playable country code in any case.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown country %q (want USA, UK or GERMANY)", s)
	}
	return c, nil
}

// Valid reports whether c is playable.
func (c Country) Valid() bool {
	switch c {
	case USA, UK, Germany:
		return true
	}
	return false
}

// Context is the one-line briefing given to the model for this country.
func (c Country) Context() string {
	switch c {
	case USA:
		return "United States of America. Leader Title: President. Currency: USD. Capital: Washington D.C."
	case UK:
		return "United Kingdom. Leader Title: Prime Minister. Currency: GBP. Capital: London."
	case Germany:
		return "Germany. Leader Title: Chancellor. Currency: EUR. Capital: Berlin."
	default:
		return "A fictional nation."
	}
}

// LeaderName finds the head of government in a cast list, or "Unknown Leader".
func LeaderName(cast []Character) string {
	for _, c := range cast {
		role := strings.ToLower(c.Role)
		if strings.Contains(role, "president") ||
			strings.Contains(role, "prime minister") ||
			strings.Contains(role, "chancellor") {
			return c.Name
		}
	}
	return "Unknown Leader"
}
