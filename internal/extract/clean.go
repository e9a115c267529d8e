// Package extract converts located section tables into canonical records.
// Extractors match columns by header name, never by position, and degrade
// per field: an unparseable cell becomes a warning and a null, not an
// error.
package extract

import (
	"strconv"
	"strings"
)

// magnitudes are the multipliers implied by a trailing K/M/G/T on a
// numeric cell. Matched case-insensitively.
var magnitudes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'G': 1e9,
	'T': 1e12,
}

// cleanNumber strips the decoration Oracle puts on numeric cells
// (thousands separators, padding, a trailing percent sign or unit word)
// and returns the multiplier a magnitude suffix implies, so "4.5G"
// parses as 4.5e9 rather than 4.5.
func cleanNumber(s string) (string, float64) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	for _, suffix := range []string{"(mins)", "mins", "ms", "us"} {
		if len(s) > len(suffix) && strings.HasSuffix(s, suffix) {
			if head := s[:len(s)-len(suffix)]; isDigits(head) {
				return head, 1
			}
		}
	}
	if len(s) > 1 {
		head := s[:len(s)-1]
		if mult, ok := magnitudes[s[len(s)-1]&^0x20]; ok && isDigits(head) {
			return head, mult
		}
		// a trailing seconds unit carries no magnitude
		if (s[len(s)-1] == 's' || s[len(s)-1] == 'S') && isDigits(head) {
			return head, 1
		}
	}
	return s, 1
}

func isDigits(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seen = true
		case r == '.' || r == '-' || r == '+' || r == ' ':
		default:
			return false
		}
	}
	return seen
}

// parseFloat parses a cleaned cell. Empty cells and placeholder dashes
// are "absent", not failures.
func parseFloat(s string) (float64, bool, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" || trimmed == "N/A" || trimmed == "n/a" {
		return 0, false, true
	}
	cleaned, mult := cleanNumber(trimmed)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, false
	}
	return v * mult, true, true
}

// parseInt parses a cleaned integer cell, tolerating a decimal tail like
// "1,042.0".
func parseInt(s string) (int64, bool, bool) {
	v, ok, absent := parseFloat(s)
	if !ok {
		return 0, false, absent
	}
	return int64(v), true, true
}

// normalizeHeader prepares a header cell for synonym matching.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ":")
	return strings.Join(strings.Fields(s), " ")
}

// findColumn returns the index of the first header matching any synonym,
// by equality first, then by substring.
func findColumn(headers []string, synonyms ...string) (int, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}
	for _, syn := range synonyms {
		for i, h := range normalized {
			if h == syn {
				return i, true
			}
		}
	}
	for _, syn := range synonyms {
		for i, h := range normalized {
			if strings.Contains(h, syn) {
				return i, true
			}
		}
	}
	return 0, false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// metricLabel cleans a metric-name cell: trailing colon dropped,
// whitespace collapsed.
func metricLabel(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ":")
}
