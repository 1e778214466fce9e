package invoice

import (
	"context"
	"fmt"

	"invwatch/internal/domain"
)

// requiredFieldValidator checks that a header field or item field is not empty.
type requiredFieldValidator struct {
	ruleKey     string
	ruleName    string
	fieldPath   string
	severity    domain.ValidationSeverity
	extract     func(*domain.InvoiceDocument) string
	perItem     bool
	extractItem func(*domain.LineItem) string
}

func (v *requiredFieldValidator) RuleKey() string  { return v.ruleKey }
func (v *requiredFieldValidator) RuleName() string { return v.ruleName }
func (v *requiredFieldValidator) RuleType() domain.ValidationRuleType {
	return domain.ValidationRuleRequired
}
func (v *requiredFieldValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *requiredFieldValidator) Validate(_ context.Context, doc *domain.InvoiceDocument) []ValidationResult {
	if v.perItem {
		results := make([]ValidationResult, 0, len(doc.Items))
		for i := range doc.Items {
			val := v.extractItem(&doc.Items[i])
			fieldPath := fmt.Sprintf("items[%d].%s", i, v.fieldPath)
			results = append(results, presence(val, v.ruleName, fieldPath))
		}
		return results
	}
	return []ValidationResult{presence(v.extract(doc), v.ruleName, v.fieldPath)}
}

func presence(val, ruleName, fieldPath string) ValidationResult {
	passed := val != ""
	msg := fmt.Sprintf("%s: %s is present", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s is missing or empty", ruleName, fieldPath)
	}
	return ValidationResult{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: "non-empty value", ActualValue: val, Message: msg,
	}
}

// RequiredFieldValidators returns the presence checks.
func RequiredFieldValidators() []*requiredFieldValidator {
	return []*requiredFieldValidator{
		{
			ruleKey: "req.header.invoice_number", ruleName: "Required: Invoice Number",
			fieldPath: "header.invoice_number", severity: domain.ValidationSeverityError,
			extract: func(d *domain.InvoiceDocument) string { return d.Header.InvoiceNumber },
		},
		{
			ruleKey: "req.consignee.name", ruleName: "Required: Consignee Name",
			fieldPath: "header.consignee.name", severity: domain.ValidationSeverityWarning,
			extract: func(d *domain.InvoiceDocument) string { return d.Header.Consignee.Name },
		},
		{
			ruleKey: "req.buyer.name", ruleName: "Required: Buyer Name",
			fieldPath: "header.buyer.name", severity: domain.ValidationSeverityWarning,
			extract: func(d *domain.InvoiceDocument) string { return d.Header.Buyer.Name },
		},
		{
			ruleKey: "req.header.place_of_supply", ruleName: "Required: Place of Supply",
			fieldPath: "header.place_of_supply", severity: domain.ValidationSeverityWarning,
			extract: func(d *domain.InvoiceDocument) string { return d.Header.PlaceOfSupply },
		},
		{
			ruleKey: "req.items.description", ruleName: "Required: Item Description",
			fieldPath: "description", severity: domain.ValidationSeverityWarning,
			perItem:     true,
			extractItem: func(it *domain.LineItem) string { return it.Description },
		},
		{
			ruleKey: "req.items.amount", ruleName: "Required: Item Amount",
			fieldPath: "amount", severity: domain.ValidationSeverityWarning,
			perItem: true,
			extractItem: func(it *domain.LineItem) string {
				if !it.Amount.Valid {
					return ""
				}
				return it.Amount.Decimal.StringFixed(2)
			},
		},
	}
}
