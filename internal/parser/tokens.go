package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"invwatch/internal/domain"
)

var (
	itemLine     = regexp.MustCompile(`^(\d{1,4})\s+(\S.*)$`)
	decimalToken = regexp.MustCompile(`^\d[\d,]*\.\d{2}$`)
	integerToken = regexp.MustCompile(`^\d+$`)
	hsnToken     = regexp.MustCompile(`^\d{6,8}$`)

	taxLine      = regexp.MustCompile(`(?i)(^\s*|\boutput\s+)(cgst|sgst|igst|utgst)\b`)
	taxFragment  = regexp.MustCompile(`(?i)\b(?:output\s+)?(?:cgst|sgst|igst|utgst)\b(?:\s*@?\s*\d+(?:\.\d+)?\s*%)?`)
	totalLabel   = regexp.MustCompile(`(?i)^\s*(?:grand\s+|sub\s*-?\s*)?total\b\s*:?`)
	currencySign = strings.NewReplacer("₹", "", "Rs.", "", "INR", "")
)

// lineSignals is what one line's tokens say about the table columns.
type lineSignals struct {
	kind     domain.ItemKind
	qty      *int
	unit     string
	rate     decimal.NullDecimal
	amount   decimal.NullDecimal
	hsn      string
	decimals int
	hasPair  bool
	// captured holds the raw tokens taken as table columns; they are
	// removed from the description.
	captured map[string]struct{}
	qtyToken string
}

// strong reports whether the line carries its own table numbers.
func (s lineSignals) strong() bool {
	return s.hsn != "" || s.hasPair || s.decimals >= 2
}

func parseAmount(tok string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// classify reads the numeric columns of a table line.
//
// A quantity followed by a unit token and at least two decimals after it is a
// standard row (rate first, amount last). No quantity pair and exactly one
// decimal is a service row. Anything else is unclassified.
func classify(tokens []string, rules *Rules) lineSignals {
	sig := lineSignals{kind: domain.ItemKindUnclassified, captured: map[string]struct{}{}}

	pair := -1
	for i := 0; i+1 < len(tokens); i++ {
		if integerToken.MatchString(tokens[i]) && rules.isUnit(tokens[i+1]) {
			pair = i
			break
		}
	}
	sig.hasPair = pair >= 0

	var decimals, after []int
	for i, tok := range tokens {
		if !decimalToken.MatchString(tok) {
			continue
		}
		decimals = append(decimals, i)
		if pair >= 0 && i > pair+1 {
			after = append(after, i)
		}
	}
	sig.decimals = len(decimals)

	hsnAt := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		if i == pair {
			continue
		}
		if hsnToken.MatchString(tokens[i]) {
			hsnAt = i
			break
		}
	}
	if hsnAt >= 0 {
		sig.hsn = tokens[hsnAt]
		sig.captured[sig.hsn] = struct{}{}
	}

	switch {
	case pair >= 0 && len(after) >= 2:
		qty, err := strconv.Atoi(tokens[pair])
		if err != nil || qty <= 0 {
			return sig
		}
		sig.kind = domain.ItemKindStandard
		sig.qty = &qty
		sig.qtyToken = tokens[pair]
		sig.unit = strings.ToUpper(tokens[pair+1])
		sig.rate = parseAmount(tokens[after[0]])
		sig.amount = parseAmount(tokens[after[len(after)-1]])
		for _, i := range after {
			sig.captured[tokens[i]] = struct{}{}
		}
	case pair < 0 && len(decimals) == 1:
		sig.kind = domain.ItemKindService
		sig.amount = parseAmount(tokens[decimals[0]])
		sig.captured[tokens[decimals[0]]] = struct{}{}
	}
	return sig
}

// isBareTotal reports whether line is nothing but a decimal once a Total
// label is stripped.
func isBareTotal(line string) bool {
	rest := totalLabel.ReplaceAllString(line, "")
	rest = strings.TrimSpace(currencySign.Replace(rest))
	return decimalToken.MatchString(rest)
}

// cleanDescription drops the captured column tokens, unit tokens and tax
// fragments from an assembled description.
func cleanDescription(desc string, sig lineSignals, rules *Rules) string {
	desc = taxFragment.ReplaceAllString(desc, " ")
	tokens := strings.Fields(desc)
	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if _, ok := sig.captured[tok]; ok {
			continue
		}
		if sig.unit != "" && rules.isUnit(tok) {
			continue
		}
		if sig.qtyToken != "" && tok == sig.qtyToken && i+1 < len(tokens) && rules.isUnit(tokens[i+1]) {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
