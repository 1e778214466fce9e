package domain

// FileType represents the document types accepted by the ingest pipeline.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// ItemKind classifies how a line item's numeric columns were recovered.
type ItemKind string

const (
	// ItemKindStandard carries quantity, unit, rate and amount.
	ItemKindStandard ItemKind = "standard"
	// ItemKindService carries only an amount.
	ItemKindService ItemKind = "service"
	// ItemKindUnclassified carries only a description.
	ItemKindUnclassified ItemKind = "unclassified"
)

// ValidationSeverity indicates how serious a validation finding is.
type ValidationSeverity string

const (
	ValidationSeverityError   ValidationSeverity = "error"
	ValidationSeverityWarning ValidationSeverity = "warning"
)

// ValidationRuleType categorizes validation rules.
type ValidationRuleType string

const (
	ValidationRuleRequired   ValidationRuleType = "required"
	ValidationRuleRegex      ValidationRuleType = "regex"
	ValidationRuleSumCheck   ValidationRuleType = "sum_check"
	ValidationRuleCrossField ValidationRuleType = "cross_field"
)

// ProcessOutcome is the terminal state of one ingested file.
type ProcessOutcome string

const (
	OutcomeArchived    ProcessOutcome = "archived"
	OutcomeQuarantined ProcessOutcome = "quarantined"
	OutcomeAbandoned   ProcessOutcome = "abandoned"
)
