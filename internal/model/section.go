package model

import "fmt"

// Template is the page layout a section renders with.
type Template string

const (
	TemplatePOS     Template = "pos"
	TemplateBooking Template = "booking"
	TemplateSimple  Template = "simple"
)

// ValidTemplates lists the layouts a section may use.
var ValidTemplates = map[Template]bool{
	TemplatePOS:     true,
	TemplateBooking: true,
	TemplateSimple:  true,
}

// Category is a filter tab inside a POS section (cafe drinks).
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Section is a business area with its own page and items.
type Section struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon,omitempty"`
	Template   Template   `json:"template"`
	QuickPrice float64    `json:"quickPrice,omitempty"`
	Categories []Category `json:"categories,omitempty"`

	// Builtin sections ship with the app and cannot be removed.
	Builtin bool `json:"-"`
}

// InvoiceType returns the invoice type issued from this section.
func (s Section) InvoiceType() InvoiceType {
	switch {
	case s.ID == "restaurant":
		return InvoiceRestaurant
	case s.ID == "cafe":
		return InvoiceCafe
	case s.ID == "football":
		return InvoiceFootball
	case s.Template == TemplateBooking:
		return InvoiceBooking
	case s.Template == TemplateSimple:
		return InvoiceSimple
	default:
		return InvoicePOS
	}
}

// DisplayIcon returns the icon or the default marker.
func (s Section) DisplayIcon() string {
	if s.Icon == "" {
		return "🔹"
	}
	return s.Icon
}

// Validate checks a section definition.
func (s Section) Validate() []ValidationError {
	var errs []ValidationError
	if s.ID == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "is required"})
	}
	if s.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "is required"})
	}
	if !ValidTemplates[s.Template] {
		errs = append(errs, ValidationError{Field: "template", Message: fmt.Sprintf("unknown template %q", s.Template)})
	}
	if s.QuickPrice < 0 {
		errs = append(errs, ValidationError{Field: "quickPrice", Message: "must not be negative"})
	}
	return errs
}
