package fixes

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Type tags the execution variant of a fix.
type Type string

const (
	TypeCSS        Type = "css"
	TypeJavaScript Type = "javascript"
)

// Valid reports whether t is a recognised fix type.
func (t Type) Valid() bool {
	return t == TypeCSS || t == TypeJavaScript
}

// Status is the lifecycle state of a fix. The backend assigns pending and
// validated; the engine writes applied and rolled_back on its own copy.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApplied    Status = "applied"
	StatusValidated  Status = "validated"
	StatusRolledBack Status = "rolled_back"
)

// Valid reports whether s is a recognised lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApplied, StatusValidated, StatusRolledBack:
		return true
	}
	return false
}

// Change is one property override. Each change becomes a single
// !important declaration.
type Change struct {
	Property string `json:"property" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Reason   string `json:"reason,omitempty"`
}

// Fix mirrors the payload returned by /api/fixes/generate.
type Fix struct {
	ID             string   `json:"id" validate:"required"`
	Type           Type     `json:"type" validate:"required,oneof=css javascript"`
	TargetElement  string   `json:"target_element"`
	TargetSelector string   `json:"target_selector,omitempty"`
	Changes        []Change `json:"changes" validate:"dive"`
	Priority       int      `json:"priority"`
	Status         Status   `json:"status,omitempty"`
}

// Selector returns the CSS selector the fix patches. target_selector wins
// when set; target_element is the fallback.
func (f *Fix) Selector() string {
	if sel := strings.TrimSpace(f.TargetSelector); sel != "" {
		return sel
	}
	return strings.TrimSpace(f.TargetElement)
}

// Declarations renders the changes as "property: value !important;" lines in
// their original order.
func (f *Fix) Declarations() []string {
	out := make([]string, 0, len(f.Changes))
	for _, c := range f.Changes {
		out = append(out, fmt.Sprintf("%s: %s !important;", c.Property, c.Value))
	}
	return out
}

// IsPending reports whether the backend still lists the fix as pending.
func (f *Fix) IsPending() bool {
	return f.Status == StatusPending
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func fixValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(validateSelector, Fix{})
	})
	return validate
}

// validateSelector requires a selector for css fixes. javascript fixes are
// accepted without one; they are rejected later at apply time.
func validateSelector(sl validator.StructLevel) {
	var fix Fix
	switch v := sl.Current().Interface().(type) {
	case Fix:
		fix = v
	case *Fix:
		fix = *v
	default:
		return
	}
	if fix.Type == TypeCSS && fix.Selector() == "" {
		sl.ReportError(fix.TargetSelector, "TargetSelector", "target_selector", "required_for_css", "")
	}
}

// Validate checks a fix submitted by a caller outside the poll path.
func (f *Fix) Validate() error {
	if f == nil {
		return fmt.Errorf("fix is nil")
	}
	if err := fixValidator().Struct(f); err != nil {
		return fmt.Errorf("invalid fix %q: %w", f.ID, err)
	}
	return nil
}
