package sections

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/karmapos/internal/model"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"money":  Money,
	"amount": amount,
}).ParseFS(templateFS, "templates/*.html.tmpl"))

var moneyPrinter = message.NewPrinter(language.English)

// Money formats an amount with thousands separators and the currency.
func Money(v float64) string {
	return moneyPrinter.Sprintf("%.2f SDG", v)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Page is the input to Render.
type Page struct {
	Section   model.Section
	Items     []model.Item
	TimeSlots []string
}

// Render writes the markup for a section page.
// Output depends only on the section and items.
func Render(w io.Writer, section model.Section, items []model.Item) error {
	if !model.ValidTemplates[section.Template] {
		return fmt.Errorf("render %q: unknown template %q", section.ID, section.Template)
	}
	page := Page{Section: section, Items: items}
	if section.Template == model.TemplateBooking {
		page.TimeSlots = TimeSlots()
	}
	if err := pages.ExecuteTemplate(w, string(section.Template)+".html.tmpl", page); err != nil {
		return fmt.Errorf("render %q: %w", section.ID, err)
	}
	return nil
}

// RenderString is Render into a string.
func RenderString(section model.Section, items []model.Item) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, section, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderMenu writes the navigation menu for all sections.
func RenderMenu(w io.Writer, all []model.Section) error {
	if err := pages.ExecuteTemplate(w, "menu.html.tmpl", all); err != nil {
		return fmt.Errorf("render menu: %w", err)
	}
	return nil
}

// Booking hours run from FirstSlotHour to LastSlotHour (exclusive end).
const (
	FirstSlotHour = 7
	LastSlotHour  = 24
)

// TimeSlots returns the hourly booking slots, "07:00 - 08:00" through
// "23:00 - 00:00".
func TimeSlots() []string {
	slots := make([]string, 0, LastSlotHour-FirstSlotHour)
	for h := FirstSlotHour; h < LastSlotHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00 - %02d:00", h, (h+1)%24))
	}
	return slots
}
