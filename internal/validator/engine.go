package validator

import (
	"context"

	"github.com/rs/zerolog"

	"invwatch/internal/domain"
)

// Status is the overall outcome of validating one document.
type Status string

const (
	StatusValid   Status = "valid"
	StatusWarning Status = "warning"
	StatusInvalid Status = "invalid"
)

// ResultEntry is a single validation result tagged with its rule.
type ResultEntry struct {
	RuleKey       string                    `json:"rule_key"`
	RuleName      string                    `json:"rule_name"`
	RuleType      domain.ValidationRuleType `json:"rule_type"`
	Severity      domain.ValidationSeverity `json:"severity"`
	Passed        bool                      `json:"passed"`
	FieldPath     string                    `json:"field_path"`
	ExpectedValue string                    `json:"expected_value"`
	ActualValue   string                    `json:"actual_value"`
	Message       string                    `json:"message"`
}

// Summary holds aggregate counts of validation results.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Report is the validation outcome for one document.
type Report struct {
	Status  Status        `json:"status"`
	Summary Summary       `json:"summary"`
	Results []ResultEntry `json:"results"`
}

// Failures returns only the failed entries.
func (r *Report) Failures() []ResultEntry {
	var out []ResultEntry
	for _, e := range r.Results {
		if !e.Passed {
			out = append(out, e)
		}
	}
	return out
}

// Engine runs every registered validator against a parsed document.
// Findings never block ingestion; they are logged and returned.
type Engine struct {
	registry *Registry
	log      zerolog.Logger
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry, log zerolog.Logger) *Engine {
	return &Engine{registry: registry, log: log}
}

// Validate runs all validators against doc and summarizes the results.
func (e *Engine) Validate(ctx context.Context, doc *domain.InvoiceDocument) *Report {
	report := &Report{Status: StatusValid, Results: []ResultEntry{}}
	hasError := false
	hasWarning := false

	for _, v := range e.registry.All() {
		for _, vr := range v.Validate(ctx, doc) {
			report.Results = append(report.Results, ResultEntry{
				RuleKey:       v.RuleKey(),
				RuleName:      v.RuleName(),
				RuleType:      v.RuleType(),
				Severity:      v.Severity(),
				Passed:        vr.Passed,
				FieldPath:     vr.FieldPath,
				ExpectedValue: vr.ExpectedValue,
				ActualValue:   vr.ActualValue,
				Message:       vr.Message,
			})
			report.Summary.Total++
			switch {
			case vr.Passed:
				report.Summary.Passed++
			case v.Severity() == domain.ValidationSeverityError:
				report.Summary.Errors++
				hasError = true
			default:
				report.Summary.Warnings++
				hasWarning = true
			}
		}
	}

	switch {
	case hasError:
		report.Status = StatusInvalid
	case hasWarning:
		report.Status = StatusWarning
	}

	for _, f := range report.Failures() {
		e.log.Warn().
			Str("source_file", doc.SourceFile).
			Str("rule", f.RuleKey).
			Str("field", f.FieldPath).
			Msg(f.Message)
	}
	e.log.Debug().
		Str("source_file", doc.SourceFile).
		Str("status", string(report.Status)).
		Int("results", report.Summary.Total).
		Msg("document validated")
	return report
}
