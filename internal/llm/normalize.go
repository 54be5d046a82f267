package llm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericFields = []string{
	"usable_area",
	"energy_use_index",
	"annual_heat_demand",
	"direct_power",
	"design_temperature",
}

var textFields = []string{
	"location",
	"building_type",
	"energy_standard",
}

// fieldAliases maps keys some models answer with (often the Polish names
// from the source document) to the canonical field names.
var fieldAliases = map[string]string{
	"powierzchnia_uzytkowa":  "usable_area",
	"area":                   "usable_area",
	"wskaznik_eu":            "energy_use_index",
	"eu":                     "energy_use_index",
	"zapotrzebowanie_cieplo": "annual_heat_demand",
	"annual_demand":          "annual_heat_demand",
	"moc_grzewcza":           "direct_power",
	"heating_power":          "direct_power",
	"temperatura_projektowa": "design_temperature",
	"lokalizacja":            "location",
	"rodzaj_budynku":         "building_type",
	"standard_energetyczny":  "energy_standard",
}

var numberPattern = regexp.MustCompile(`[-−]?\d+(?:[.,]\d+|[ \x{00a0}\x{202f}]\d{3})*`)

// Normalize coerces a decoded model response in place so it can be checked
// against the extraction schema: numbers given as strings ("120,5 m²") are
// parsed, unusable values become null and text fields are trimmed. The
// informational labels are coerced into range; only the shape of found_data
// is left for the schema to reject.
func Normalize(obj map[string]any) map[string]any {
	if obj == nil {
		obj = map[string]any{}
	}

	raw, present := obj["found_data"]
	found, isObject := raw.(map[string]any)
	if present && raw != nil && !isObject {
		return obj
	}
	if found == nil {
		found = map[string]any{}
	}
	for alias, canonical := range fieldAliases {
		v, ok := found[alias]
		if !ok {
			continue
		}
		if cur, exists := found[canonical]; !exists || cur == nil {
			found[canonical] = v
		}
		delete(found, alias)
	}
	hasData := false
	for _, key := range numericFields {
		if n, ok := ParseNumber(found[key]); ok {
			found[key] = n
			hasData = true
		} else {
			found[key] = nil
		}
	}
	for _, key := range textFields {
		if s := textValue(found[key]); s != "" {
			found[key] = s
			hasData = true
		} else {
			found[key] = nil
		}
	}
	obj["found_data"] = found

	for _, key := range []string{"analysis_summary", "recommended_calculation_method", "notes"} {
		obj[key] = textValue(obj[key])
	}

	obj["data_quality"] = normalizeQuality(textValue(obj["data_quality"]), hasData)
	obj["confidence_level"] = normalizeConfidence(obj["confidence_level"])

	return obj
}

func normalizeQuality(q string, hasData bool) string {
	switch q = strings.ToLower(q); q {
	case QualityGood, QualityPartial, QualityInsufficient:
		return q
	}
	if hasData {
		return QualityPartial
	}
	return QualityInsufficient
}

// normalizeConfidence maps the reported confidence into 0..1. Whole numbers
// above 1 and values written with a percent sign are read as percentages.
func normalizeConfidence(v any) float64 {
	c, ok := ParseNumber(v)
	if !ok {
		return 0
	}
	s, isString := v.(string)
	switch {
	case isString && strings.Contains(s, "%"):
		c /= 100
	case c > 1 && c <= 100 && c == math.Trunc(c):
		c /= 100
	}
	return math.Max(0, math.Min(1, c))
}

// ParseNumber reads a finite number from a JSON value. Strings may carry
// units, a decimal comma and thousands separators (space, comma or dot). A
// single comma or dot followed by exactly three digits is a thousands
// separator ("12,000" is 12000, "120,5" is 120.5). Separators that cannot be
// told apart ("1,234,5") make the value unusable.
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case int:
		return float64(t), true
	case string:
		m := numberPattern.FindString(t)
		if m == "" {
			return 0, false
		}
		m = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "−", "-").Replace(m)
		m, ok := resolveSeparators(m)
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		return n, finite(n)
	default:
		return 0, false
	}
}

// resolveSeparators rewrites a digit run with '.' and ',' separators into a
// plain decimal literal.
func resolveSeparators(m string) (string, bool) {
	sign := ""
	if strings.HasPrefix(m, "-") {
		sign, m = "-", m[1:]
	}
	groups := strings.FieldsFunc(m, func(r rune) bool { return r == '.' || r == ',' })
	if len(groups) == 1 {
		return sign + m, true
	}
	var seps []byte
	for i := 0; i < len(m); i++ {
		if m[i] == '.' || m[i] == ',' {
			seps = append(seps, m[i])
		}
	}

	last := seps[len(seps)-1]
	thousands := seps[:len(seps)-1]
	decimal := true
	switch {
	case len(thousands) > 0 && thousands[0] != last:
		// "1.500,5": the final separator is the decimal mark.
	case len(thousands) > 0:
		// "1.234.567": every separator groups thousands.
		thousands, decimal = seps, false
	case len(groups[1]) == 3 && groups[0] != "0":
		thousands, decimal = seps, false
	}
	for i, sep := range thousands {
		if sep != thousands[0] || len(groups[i+1]) != 3 {
			return "", false
		}
	}

	intPart := strings.Join(groups[:len(thousands)+1], "")
	if !decimal {
		return sign + intPart, true
	}
	return sign + intPart + "." + groups[len(groups)-1], true
}

func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
