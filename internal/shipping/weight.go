package shipping

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultPackWeightKg is used when a pack size string cannot be parsed.
const DefaultPackWeightKg = 1.0

var packSizePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*(kg|g|l|ml)$`)

// ParsePackWeightKg converts a variant pack size label such as "500g", "1kg",
// "250ml" or "1l" into kilograms. Liquids are treated at unit density.
// Unrecognised labels fall back to DefaultPackWeightKg so a malformed
// catalogue entry never blocks a quote.
func ParsePackWeightKg(packSize string) (float64, bool) {
	m := packSizePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(packSize)))
	if m == nil {
		return DefaultPackWeightKg, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return DefaultPackWeightKg, false
	}
	switch m[2] {
	case "kg", "l":
		return value, true
	case "g", "ml":
		return value / 1000.0, true
	}
	return DefaultPackWeightKg, false
}
