package invoice

import (
	"context"
	"fmt"

	"invwatch/internal/domain"
)

// crossFieldValidator checks relationships between different fields.
type crossFieldValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	validate func(*domain.InvoiceDocument) []ValidationResult
}

func (v *crossFieldValidator) RuleKey() string                     { return v.ruleKey }
func (v *crossFieldValidator) RuleName() string                    { return v.ruleName }
func (v *crossFieldValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleCrossField }
func (v *crossFieldValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *crossFieldValidator) Validate(_ context.Context, doc *domain.InvoiceDocument) []ValidationResult {
	return v.validate(doc)
}

// CrossFieldValidators returns all cross-field validators.
func CrossFieldValidators() []*crossFieldValidator {
	return []*crossFieldValidator{
		{
			ruleKey: "xf.consignee.gstin_state", ruleName: "Cross-field: Consignee GSTIN-State Match",
			severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return gstinStateCheck("consignee", d.Header.Consignee.GSTIN, d.Header.Consignee.StateCode)
			},
		},
		{
			ruleKey: "xf.buyer.gstin_state", ruleName: "Cross-field: Buyer GSTIN-State Match",
			severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return gstinStateCheck("buyer", d.Header.Buyer.GSTIN, d.Header.Buyer.StateCode)
			},
		},
	}
}

// gstinStateCheck verifies the GSTIN's two-digit prefix equals the state code.
func gstinStateCheck(party, gstin, stateCode string) []ValidationResult {
	fieldPath := fmt.Sprintf("header.%s.gstin", party)
	if len(gstin) < 2 || stateCode == "" {
		return []ValidationResult{{
			Passed: true, FieldPath: fieldPath,
			Message: fmt.Sprintf("%s GSTIN or state code missing, skipping", party),
		}}
	}
	prefix := gstin[:2]
	passed := prefix == stateCode
	msg := fmt.Sprintf("%s GSTIN prefix matches state code %s", party, stateCode)
	if !passed {
		msg = fmt.Sprintf("%s GSTIN prefix %s does not match state code %s", party, prefix, stateCode)
	}
	return []ValidationResult{{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: stateCode, ActualValue: prefix, Message: msg,
	}}
}
