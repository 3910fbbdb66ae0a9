package domain

import "fmt"

// Report is a core entity describing one row scraped from the listing site.
// Date keeps the source-native string form; the site renders several layouts
// and the scanner matches rather than normalizes them.
type Report struct {
	ID       string
	Title    string
	Provider string
	Date     string
	Link     string
	Category Category
}

// Category enumerates the report sections tracked on the listing site.
type Category int

const (
	CategoryIndustry Category = iota
	CategoryMarket
)

// categoryMeta carries the display and query fields for one section.
type categoryMeta struct {
	name       string
	label      string
	icon       string
	queryParam string
	rowToken   string
}

var categories = map[Category]categoryMeta{
	CategoryIndustry: {
		name:       "industry",
		label:      "Industry",
		icon:       "🏭",
		queryParam: "industry",
		rowToken:   "산업",
	},
	CategoryMarket: {
		name:       "market",
		label:      "Market",
		icon:       "📈",
		queryParam: "market",
		rowToken:   "시장",
	},
}

func (c Category) String() string { return categories[c].name }

// Label is the human-readable section name used in notifications.
func (c Category) Label() string { return categories[c].label }

// Icon prefixes the notification header.
func (c Category) Icon() string { return categories[c].icon }

// QueryParam is the value sent in the listing-page query string.
func (c Category) QueryParam() string { return categories[c].queryParam }

// RowToken is the literal text the site renders in the category column.
func (c Category) RowToken() string { return categories[c].rowToken }

// ParseCategory resolves a config-supplied name to a Category.
func ParseCategory(name string) (Category, error) {
	for cat, meta := range categories {
		if meta.name == name {
			return cat, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}
