package workbook

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric parses a cell value as a float. Values typed into text cells by
// hand may use ',' as decimal separator or carry thousands separators; the
// decimal separator is detected from the last separator present. A single
// comma followed by exactly three digits is read as a thousands separator.
// NaN and infinities are rejected.
func ParseNumeric(s string) (float64, bool) {
	f, ok := parseNumeric(s)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, true
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec = ','
		}
	case cpos >= 0 && strings.Count(raw, ",") == 1 && !isThousandsGroup(raw, cpos):
		dec = ','
	}
	for _, sep := range []rune{',', '.'} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isThousandsGroup reports whether the comma at pos separates a non-zero
// integer part of at most three digits from exactly three trailing digits.
func isThousandsGroup(raw string, pos int) bool {
	head := strings.TrimLeft(raw[:pos], "+-")
	tail := raw[pos+1:]
	if len(tail) != 3 || len(head) == 0 || len(head) > 3 || head[0] == '0' {
		return false
	}
	return allDigits(head) && allDigits(tail)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
