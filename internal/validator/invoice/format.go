package invoice

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"invwatch/internal/domain"
)

var (
	gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	hsnPattern   = regexp.MustCompile(`^\d{4,8}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
)

// formatValidator checks a field against a regex or format rule.
type formatValidator struct {
	ruleKey   string
	ruleName  string
	fieldPath string
	severity  domain.ValidationSeverity
	validate  func(*domain.InvoiceDocument) []ValidationResult
}

func (v *formatValidator) RuleKey() string                     { return v.ruleKey }
func (v *formatValidator) RuleName() string                    { return v.ruleName }
func (v *formatValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleRegex }
func (v *formatValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *formatValidator) Validate(_ context.Context, doc *domain.InvoiceDocument) []ValidationResult {
	return v.validate(doc)
}

func regexCheck(fieldPath, value, pattern, ruleName string, re *regexp.Regexp) ValidationResult {
	if value == "" {
		return ValidationResult{
			Passed: true, FieldPath: fieldPath,
			ExpectedValue: pattern, ActualValue: value,
			Message: fmt.Sprintf("%s: field is empty, skipping format check", ruleName),
		}
	}
	passed := re.MatchString(value)
	msg := fmt.Sprintf("%s: %s matches expected format", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s does not match expected format", ruleName, fieldPath)
	}
	return ValidationResult{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: pattern, ActualValue: value, Message: msg,
	}
}

func stateCodeCheck(fieldPath, value, ruleName string) ValidationResult {
	if value == "" {
		return ValidationResult{
			Passed: true, FieldPath: fieldPath,
			ExpectedValue: "2-digit state code (01-38)", ActualValue: value,
			Message: fmt.Sprintf("%s: field is empty, skipping state code check", ruleName),
		}
	}
	passed := false
	if len(value) == 2 {
		code, err := strconv.Atoi(value)
		if err == nil && code >= 1 && code <= 38 {
			passed = true
		}
	}
	msg := fmt.Sprintf("%s: %s is a valid state code", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s is not a valid 2-digit state code (01-38)", ruleName, fieldPath)
	}
	return ValidationResult{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: "2-digit state code (01-38)", ActualValue: value, Message: msg,
	}
}

func partyFormat(role string, pick func(*domain.InvoiceDocument) *domain.Party) []*formatValidator {
	title := map[string]string{"consignee": "Consignee", "buyer": "Buyer"}[role]
	return []*formatValidator{
		{
			ruleKey: "fmt." + role + ".gstin", ruleName: "Format: " + title + " GSTIN",
			fieldPath: "header." + role + ".gstin", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{regexCheck("header."+role+".gstin", pick(d).GSTIN, "15-char GSTIN format", "Format: "+title+" GSTIN", gstinPattern)}
			},
		},
		{
			ruleKey: "fmt." + role + ".state_code", ruleName: "Format: " + title + " State Code",
			fieldPath: "header." + role + ".state_code", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{stateCodeCheck("header."+role+".state_code", pick(d).StateCode, "Format: "+title+" State Code")}
			},
		},
		{
			ruleKey: "fmt." + role + ".email", ruleName: "Format: " + title + " Email",
			fieldPath: "header." + role + ".email", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{regexCheck("header."+role+".email", pick(d).Email, "email address", "Format: "+title+" Email", emailPattern)}
			},
		},
	}
}

// FormatValidators returns all format validators.
func FormatValidators() []*formatValidator {
	vals := partyFormat("consignee", func(d *domain.InvoiceDocument) *domain.Party { return &d.Header.Consignee })
	vals = append(vals, partyFormat("buyer", func(d *domain.InvoiceDocument) *domain.Party { return &d.Header.Buyer })...)
	vals = append(vals, &formatValidator{
		ruleKey: "fmt.items.hsn", ruleName: "Format: Item HSN/SAC",
		fieldPath: "items[].hsn_code", severity: domain.ValidationSeverityWarning,
		validate: func(d *domain.InvoiceDocument) []ValidationResult {
			results := make([]ValidationResult, 0, len(d.Items))
			for i := range d.Items {
				fp := fmt.Sprintf("items[%d].hsn_code", i)
				results = append(results, regexCheck(fp, d.Items[i].HSNCode, "4-8 digit HSN/SAC", "Format: Item HSN/SAC", hsnPattern))
			}
			return results
		},
	})
	return vals
}
