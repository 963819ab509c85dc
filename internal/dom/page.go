package dom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

const (
	ensureStyleJS = `(id) => {
		let el = document.getElementById(id);
		if (el) {
			return {created: false, text: el.textContent || ''};
		}
		if (!document.head) {
			throw new Error('document has no head');
		}
		el = document.createElement('style');
		el.id = id;
		document.head.appendChild(el);
		return {created: true, text: ''};
	}`

	setStyleTextJS = `(id, text) => {
		const el = document.getElementById(id);
		if (!el) {
			throw new Error('style node missing');
		}
		el.textContent = text;
	}`

	removeStyleJS = `(id) => {
		const el = document.getElementById(id);
		if (el) {
			el.remove();
		}
	}`
)

// Page is a Document backed by a live browser tab.
type Page struct {
	page    *rod.Page
	styleID string
}

var _ Document = (*Page)(nil)

// NewPage wraps a rod page. An empty styleID uses StyleID.
func NewPage(page *rod.Page, styleID string) *Page {
	if styleID == "" {
		styleID = StyleID
	}
	return &Page{page: page, styleID: styleID}
}

func (p *Page) EnsureStyle(ctx context.Context) (string, bool, error) {
	if p.page == nil {
		return "", false, ErrDetached
	}
	res, err := p.page.Context(ctx).Eval(ensureStyleJS, p.styleID)
	if err != nil {
		return "", false, fmt.Errorf("dom: ensure style: %w", err)
	}
	return res.Value.Get("text").Str(), res.Value.Get("created").Bool(), nil
}

func (p *Page) SetStyleText(ctx context.Context, text string) error {
	if p.page == nil {
		return ErrDetached
	}
	if _, err := p.page.Context(ctx).Eval(setStyleTextJS, p.styleID, text); err != nil {
		return fmt.Errorf("dom: set style text: %w", err)
	}
	return nil
}

func (p *Page) RemoveStyle(ctx context.Context) error {
	if p.page == nil {
		return ErrDetached
	}
	if _, err := p.page.Context(ctx).Eval(removeStyleJS, p.styleID); err != nil {
		return fmt.Errorf("dom: remove style: %w", err)
	}
	return nil
}
