package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"invwatch/internal/domain"
)

// RuleSet is the editable form of the extraction rules. Zero-valued fields
// keep the built-in defaults when the set is merged onto them.
type RuleSet struct {
	InvoiceNumberPattern string   `yaml:"invoice_number_pattern"`
	InvoiceMarker        string   `yaml:"invoice_marker"`
	Units                []string `yaml:"units"`
	TableHeaderPatterns  []string `yaml:"table_header_patterns"`
	TableEndPatterns     []string `yaml:"table_end_patterns"`
	DenyList             []string `yaml:"deny_list"`
	AddressLookahead     int      `yaml:"address_lookahead"`
	LadingLookahead      int      `yaml:"lading_lookahead"`
}

// DefaultRuleSet returns the rules tuned for Tally-style GST tax invoices.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		InvoiceNumberPattern: `SC\d{5}-\d{2}-\d{2}`,
		InvoiceMarker:        "TAX INVOICE",
		Units:                []string{"NOS"},
		TableHeaderPatterns: []string{
			`(?i)\b(sl|s\.?\s*no|sr\.?\s*no)\b.*\b(quantity|qty|hsn/sac)\b`,
			`(?i)\bdescription\s+of\s+(goods|services)\b.*\b(quantity|hsn/sac|amount)\b`,
		},
		TableEndPatterns: []string{
			`(?i)^\s*total\b`,
			`(?i)\bamount\s+chargeable\b`,
			`(?i)\bcontinued\s+to\s+page\b`,
			`(?i)\bsubject\s+to\b`,
			`(?i)^\s*tax\s+amount\b`,
			`(?i)\bdeclaration\b`,
			`(?i)\bauthori[sz]ed\s+signatory\b`,
		},
		DenyList: []string{
			"Dispatch Doc No.",
			"Delivery Note Date",
			"Delivery Note",
			"Dispatched through",
			"Destination",
			"Bill of Lading/LR-RR No.",
			"Motor Vehicle No.",
			"Mode/Terms of Payment",
			"Reference No. & Date.",
			"Other References",
			"Buyer's Order No.",
			"Terms of Delivery",
		},
		AddressLookahead: 10,
		LadingLookahead:  5,
	}
}

// Rules is the compiled, read-only form of a RuleSet. A single *Rules value
// is shared by every parse.
type Rules struct {
	invoiceNumber    *regexp.Regexp
	invoiceMarker    string
	units            map[string]struct{}
	tableHeaders     []*regexp.Regexp
	tableEnd         []*regexp.Regexp
	denyList         []string
	addressLookahead int
	ladingLookahead  int
}

// DefaultRules compiles DefaultRuleSet. The defaults are known to compile.
func DefaultRules() *Rules {
	r, err := DefaultRuleSet().Compile()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRules reads a YAML rule file and merges it onto the defaults.
// An empty path returns the defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var override RuleSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRules, err)
	}
	return DefaultRuleSet().Merge(override).Compile()
}

// Merge returns a copy of s with every non-zero field of o applied.
func (s RuleSet) Merge(o RuleSet) RuleSet {
	if o.InvoiceNumberPattern != "" {
		s.InvoiceNumberPattern = o.InvoiceNumberPattern
	}
	if o.InvoiceMarker != "" {
		s.InvoiceMarker = o.InvoiceMarker
	}
	if len(o.Units) > 0 {
		s.Units = o.Units
	}
	if len(o.TableHeaderPatterns) > 0 {
		s.TableHeaderPatterns = o.TableHeaderPatterns
	}
	if len(o.TableEndPatterns) > 0 {
		s.TableEndPatterns = o.TableEndPatterns
	}
	if len(o.DenyList) > 0 {
		s.DenyList = o.DenyList
	}
	if o.AddressLookahead > 0 {
		s.AddressLookahead = o.AddressLookahead
	}
	if o.LadingLookahead > 0 {
		s.LadingLookahead = o.LadingLookahead
	}
	return s
}

// Compile validates the rule set and builds its matchers.
func (s RuleSet) Compile() (*Rules, error) {
	if s.InvoiceNumberPattern == "" {
		return nil, fmt.Errorf("%w: invoice number pattern is empty", domain.ErrInvalidRules)
	}
	inv, err := regexp.Compile(s.InvoiceNumberPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice number pattern: %v", domain.ErrInvalidRules, err)
	}
	if len(s.Units) == 0 {
		return nil, fmt.Errorf("%w: at least one unit token is required", domain.ErrInvalidRules)
	}
	headers, err := compileAll("table header", s.TableHeaderPatterns)
	if err != nil {
		return nil, err
	}
	ends, err := compileAll("table end", s.TableEndPatterns)
	if err != nil {
		return nil, err
	}

	units := make(map[string]struct{}, len(s.Units))
	for _, u := range s.Units {
		units[strings.ToUpper(strings.TrimSpace(u))] = struct{}{}
	}
	deny := make([]string, 0, len(s.DenyList))
	for _, d := range s.DenyList {
		if d = strings.TrimSpace(d); d != "" {
			deny = append(deny, d)
		}
	}

	return &Rules{
		invoiceNumber:    inv,
		invoiceMarker:    strings.ToLower(s.InvoiceMarker),
		units:            units,
		tableHeaders:     headers,
		tableEnd:         ends,
		denyList:         deny,
		addressLookahead: max(s.AddressLookahead, 1),
		ladingLookahead:  max(s.LadingLookahead, 1),
	}, nil
}

func compileAll(what string, patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no %s patterns", domain.ErrInvalidRules, what)
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s pattern %q: %v", domain.ErrInvalidRules, what, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (r *Rules) isUnit(tok string) bool {
	_, ok := r.units[strings.ToUpper(tok)]
	return ok
}

func (r *Rules) isTableHeader(line string) bool {
	return matchesAny(r.tableHeaders, line)
}

func (r *Rules) isTableEnd(line string) bool {
	return matchesAny(r.tableEnd, line)
}

// isInvoicePage reports whether the page text carries the invoice marker.
func (r *Rules) isInvoicePage(lines []string) bool {
	if r.invoiceMarker == "" {
		return false
	}
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), r.invoiceMarker) {
			return true
		}
	}
	return false
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
