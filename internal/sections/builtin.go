package sections

import "github.com/roach88/karmapos/internal/model"

// Built-in section ids.
const (
	RestaurantID = "restaurant"
	CafeID       = "cafe"
	FootballID   = "football"
)

// CafeCategories are the drink tabs of the cafe grid.
var CafeCategories = []model.Category{
	{Key: "coffee", Label: "قهوة"},
	{Key: "juice", Label: "عصائر"},
	{Key: "tea", Label: "شاي ومشروبات ساخنة"},
}

// Builtins returns fresh copies of the built-in sections.
func Builtins() []model.Section {
	return []model.Section{
		{ID: RestaurantID, Name: "المطعم", Icon: "🍽️", Template: model.TemplatePOS, Builtin: true},
		{ID: CafeID, Name: "الكافيه", Icon: "☕", Template: model.TemplatePOS, Categories: CafeCategories, Builtin: true},
		{ID: FootballID, Name: "الميادين", Icon: "⚽", Template: model.TemplateBooking, Builtin: true},
	}
}

func builtin(id string) (model.Section, bool) {
	for _, s := range Builtins() {
		if s.ID == id {
			return s, true
		}
	}
	return model.Section{}, false
}
