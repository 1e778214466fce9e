package parser

import (
	"fmt"

	"invwatch/internal/domain"
)

// ErrorKind names the class of a field extraction failure.
type ErrorKind string

// KindInvalidDate is the only hard failure of header extraction.
const KindInvalidDate ErrorKind = "InvalidDate"

// FieldExtractionError reports a header field that blocks assembly of the document.
type FieldExtractionError struct {
	Kind ErrorKind
	Raw  string
}

func (e *FieldExtractionError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("%s: no invoice date found", e.Kind)
	}
	return fmt.Sprintf("%s: cannot parse %q as an invoice date", e.Kind, e.Raw)
}

func (e *FieldExtractionError) Unwrap() error {
	return domain.ErrInvalidDate
}

// SegmentationAnomaly is a non-fatal warning raised when an item number does
// not exceed the one finalized before it. The item itself is kept.
type SegmentationAnomaly struct {
	ItemNo     int
	PrevItemNo int
	Page       int
}

func (a SegmentationAnomaly) String() string {
	return fmt.Sprintf("item %d on page %d follows item %d", a.ItemNo, a.Page, a.PrevItemNo)
}
