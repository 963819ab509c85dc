// Package dom abstracts the single style node the applier owns inside a host
// document. Memory keeps the node in process (served over HTTP in headless
// mode); Page drives a live browser tab through go-rod.
package dom

import (
	"context"
	"errors"
)

// StyleID is the element id of the shared style node.
const StyleID = "forge-experience-design-fixes"

var (
	// ErrDetached means the host document is gone (closed tab, torn-down page).
	ErrDetached = errors.New("dom: document detached")
	// ErrNoStyle means the style node was written before it was ensured.
	ErrNoStyle = errors.New("dom: style node missing")
)

// Document is the mutation surface for the shared style node.
type Document interface {
	// EnsureStyle finds or creates the style node in the document head. When
	// an existing node is adopted its current text is returned with
	// created=false.
	EnsureStyle(ctx context.Context) (existing string, created bool, err error)
	// SetStyleText replaces the node's text content.
	SetStyleText(ctx context.Context, text string) error
	// RemoveStyle detaches the node from the document. Removing a missing
	// node is not an error.
	RemoveStyle(ctx context.Context) error
}
