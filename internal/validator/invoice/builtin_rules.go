package invoice

import (
	"context"

	"invwatch/internal/domain"
)

// BuiltinValidator wraps a validator function and its metadata for the registry.
type BuiltinValidator struct {
	key      string
	name     string
	ruleType domain.ValidationRuleType
	sev      domain.ValidationSeverity
	fn       func(context.Context, *domain.InvoiceDocument) []ValidationResult
}

func (b *BuiltinValidator) Validate(ctx context.Context, doc *domain.InvoiceDocument) []ValidationResult {
	return b.fn(ctx, doc)
}
func (b *BuiltinValidator) RuleKey() string                     { return b.key }
func (b *BuiltinValidator) RuleName() string                    { return b.name }
func (b *BuiltinValidator) RuleType() domain.ValidationRuleType { return b.ruleType }
func (b *BuiltinValidator) Severity() domain.ValidationSeverity { return b.sev }

type ruleInfo interface {
	RuleKey() string
	RuleName() string
	RuleType() domain.ValidationRuleType
	Severity() domain.ValidationSeverity
	Validate(context.Context, *domain.InvoiceDocument) []ValidationResult
}

func wrap[T ruleInfo](vals []T) []*BuiltinValidator {
	out := make([]*BuiltinValidator, 0, len(vals))
	for _, v := range vals {
		out = append(out, &BuiltinValidator{
			key: v.RuleKey(), name: v.RuleName(),
			ruleType: v.RuleType(), sev: v.Severity(),
			fn: v.Validate,
		})
	}
	return out
}

// AllBuiltinValidators returns every built-in check for parsed invoices.
func AllBuiltinValidators() []*BuiltinValidator {
	var all []*BuiltinValidator
	all = append(all, wrap(RequiredFieldValidators())...)
	all = append(all, wrap(FormatValidators())...)
	all = append(all, wrap(IRNFormatValidators())...)
	all = append(all, wrap(CrossFieldValidators())...)
	all = append(all, wrap(MathValidators())...)
	return all
}
