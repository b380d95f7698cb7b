package domain

import "errors"

// Lookup errors
var (
	// ErrLayerNotFound is returned when a mutation targets a layer id that is not in the tree.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrPageNotFound is returned when a page id does not match any root layer.
	ErrPageNotFound = errors.New("page not found")

	// ErrVariableNotFound is returned when a variable id is unknown.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
	ErrDocumentNotFound = errors.New("document not found")
)

// Invariant errors
var (
	// ErrLastPage is returned when removing the only remaining page.
	// A document must always keep at least one page.
	ErrLastPage = errors.New("cannot remove the last page")

	// ErrEmptyDocument is returned when initializing a store without pages.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrInvalidVariableType is returned for a variable type outside string, number, boolean and function.
	ErrInvalidVariableType = errors.New("invalid variable type")

	// ErrInvalidMove is returned when a layer cannot be moved to the requested parent:
	// the source is a page, the target cannot hold layers, or the target is inside the source.
	ErrInvalidMove = errors.New("invalid move")
)
