package parser

import (
	"regexp"
	"strings"
)

var (
	repeatedCommas = regexp.MustCompile(`\s*,(\s*,)+\s*`)
	commaSpacing   = regexp.MustCompile(`\s*,\s*`)
)

// collapseSpaces trims s and folds every whitespace run into one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLeading removes colons and punctuation left over after a label.
func stripLeading(s string) string {
	return strings.TrimLeft(s, ":;,.-–|/ \t")
}

// removeDenied deletes every deny-listed label fragment from s.
func (r *Rules) removeDenied(s string) string {
	for _, d := range r.denyList {
		s = strings.ReplaceAll(s, d, " ")
	}
	return s
}

// cutDenied truncates s at the first deny-listed fragment. Party names bleed
// into the neighbouring column, so everything after the label is noise.
func (r *Rules) cutDenied(s string) string {
	cut := len(s)
	for _, d := range r.denyList {
		if i := strings.Index(s, d); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

// containsDenied reports whether line carries a known label fragment.
func (r *Rules) containsDenied(line string) bool {
	for _, d := range r.denyList {
		if strings.Contains(line, d) {
			return true
		}
	}
	return false
}

// cleanField applies the general post-processing used for every text field.
func (r *Rules) cleanField(s string) string {
	s = collapseSpaces(r.removeDenied(s))
	return collapseSpaces(stripLeading(s))
}

// cleanName is cleanField for party names.
func (r *Rules) cleanName(s string) string {
	return collapseSpaces(stripLeading(collapseSpaces(r.cutDenied(s))))
}

// cleanAddress tidies the commas left behind by contact and email removal.
func cleanAddress(s string) string {
	s = repeatedCommas.ReplaceAllString(s, ", ")
	s = commaSpacing.ReplaceAllString(s, ", ")
	s = collapseSpaces(s)
	return strings.Trim(s, ", ")
}

// dedupeLines drops blank and repeated lines, keeping first-seen order.
func dedupeLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
