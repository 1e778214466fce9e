package service

import (
	"strings"
	"unicode"

	"invwatch/internal/port"
)

// MapColumns matches CSV headers to remote column ids. Each header is tried
// against, in order: exact label, exact id, normalized label, normalized id.
// Headers without a match are absent from the result.
func MapColumns(csvHeaders []string, cols []port.Column) map[string]string {
	byLabel := make(map[string]string, len(cols))
	byID := make(map[string]string, len(cols))
	byNormLabel := make(map[string]string, len(cols))
	byNormID := make(map[string]string, len(cols))
	for _, c := range cols {
		setOnce(byLabel, c.Label, c.ID)
		setOnce(byID, c.ID, c.ID)
		setOnce(byNormLabel, NormalizeColumnName(c.Label), c.ID)
		setOnce(byNormID, NormalizeColumnName(c.ID), c.ID)
	}

	out := make(map[string]string, len(csvHeaders))
	for _, h := range csvHeaders {
		norm := NormalizeColumnName(h)
		switch {
		case byLabel[h] != "":
			out[h] = byLabel[h]
		case byID[h] != "":
			out[h] = byID[h]
		case byNormLabel[norm] != "":
			out[h] = byNormLabel[norm]
		case byNormID[norm] != "":
			out[h] = byNormID[norm]
		}
	}
	return out
}

func setOnce(m map[string]string, key, id string) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = id
	}
}

// NormalizeColumnName lowercases s and turns every run of characters other
// than letters and digits into a single underscore: "e-Way Bill No." becomes
// "e_way_bill_no".
func NormalizeColumnName(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		sep = true
	}
	return b.String()
}
