package enrich

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	amountNoise  = regexp.MustCompile(`[$€£,~]|USD|EUR|GBP|APPROXIMATELY|APPROX`)
	amountUnitRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(B|BILLION|M|MN|MILLION|K|THOUSAND)?$`)
)

var unitMultipliers = map[string]float64{
	"":         1,
	"B":        1e9,
	"BILLION":  1e9,
	"M":        1e6,
	"MN":       1e6,
	"MILLION":  1e6,
	"K":        1e3,
	"THOUSAND": 1e3,
}

// NormalizeAmount converts free-form money text ("$40M", "£500k",
// "10,000,000") into whole currency units. It returns nil for blank or
// unparseable input.
func NormalizeAmount(raw string) *int64 {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}

	if digitsRe.MatchString(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return &v
	}

	cleaned := strings.TrimSpace(amountNoise.ReplaceAllString(s, ""))
	m := amountUnitRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	total := math.Round(value * unitMultipliers[m[2]])
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if total < 0 || total >= math.MaxInt64 || math.IsNaN(total) {
		return nil
	}
	v := int64(total)
	return &v
}

// FormatAmount renders a normalized amount, or "" when absent.
func FormatAmount(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
