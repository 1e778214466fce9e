package invoice

import (
	"regexp"
	"strings"

	"invwatch/internal/domain"
)

var (
	irnPattern   = regexp.MustCompile(`^[0-9a-f]{64}$`)
	ackNoPattern = regexp.MustCompile(`^\d+$`)
	ewayPattern  = regexp.MustCompile(`^\d{12}$`)
)

// IRNFormatValidators returns format validators for the e-invoice fields.
func IRNFormatValidators() []*formatValidator {
	return []*formatValidator{
		{
			ruleKey: "fmt.header.irn", ruleName: "Format: IRN",
			fieldPath: "header.irn", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{regexCheck("header.irn", strings.ToLower(d.Header.IRN), "64-char lowercase hex SHA-256", "Format: IRN", irnPattern)}
			},
		},
		{
			ruleKey: "fmt.header.ack_no", ruleName: "Format: Acknowledgement Number",
			fieldPath: "header.ack_no", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{regexCheck("header.ack_no", d.Header.AckNo, "numeric string", "Format: Acknowledgement Number", ackNoPattern)}
			},
		},
		{
			ruleKey: "fmt.header.eway_bill_no", ruleName: "Format: e-Way Bill Number",
			fieldPath: "header.eway_bill_no", severity: domain.ValidationSeverityWarning,
			validate: func(d *domain.InvoiceDocument) []ValidationResult {
				return []ValidationResult{regexCheck("header.eway_bill_no", d.Header.EWayBillNo, "12-digit number", "Format: e-Way Bill Number", ewayPattern)}
			},
		},
	}
}
