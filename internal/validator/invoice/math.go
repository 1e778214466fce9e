package invoice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"invwatch/internal/domain"
)

var mathTolerance = decimal.NewFromFloat(1.00)

// mathValidator checks arithmetic relationships between fields.
type mathValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	validate func(*domain.InvoiceDocument) []ValidationResult
}

func (v *mathValidator) RuleKey() string                     { return v.ruleKey }
func (v *mathValidator) RuleName() string                    { return v.ruleName }
func (v *mathValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleSumCheck }
func (v *mathValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *mathValidator) Validate(_ context.Context, doc *domain.InvoiceDocument) []ValidationResult {
	return v.validate(doc)
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(mathTolerance)
}

func mathResult(passed bool, fieldPath, expected, actual, ruleName string) ValidationResult {
	msg := fmt.Sprintf("%s: %s calculation matches", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s calculation mismatch (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return ValidationResult{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
	}
}

// MathValidators returns all mathematical validators.
func MathValidators() []*mathValidator {
	return []*mathValidator{
		{
			ruleKey: "math.items.amount", ruleName: "Math: Item Amount",
			severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				var results []ValidationResult
				for i := range d.Items {
					it := &d.Items[i]
					if it.Kind != domain.ItemKindStandard || it.Quantity == nil || !it.Rate.Valid || !it.Amount.Valid {
						continue
					}
					want := it.Rate.Decimal.Mul(decimal.NewFromInt(int64(*it.Quantity)))
					results = append(results, mathResult(
						approxEqual(want, it.Amount.Decimal),
						fmt.Sprintf("items[%d].amount", i),
						want.StringFixed(2), it.Amount.Decimal.StringFixed(2),
						"Math: Item Amount",
					))
				}
				return results
			},
		},
	}
}
