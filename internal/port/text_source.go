package port

import "context"

// TextSource yields the text of a document as ordered pages of ordered,
// reading-order lines.
type TextSource interface {
	Pages(ctx context.Context, path string) ([][]string, error)
}
