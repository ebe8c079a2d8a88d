package sheets

import (
	"context"
	"fmt"
	"strings"

	"mealplanner/internal/core"
	"mealplanner/internal/shopping"
	"mealplanner/internal/units"
)

// Header is the first row of every exported tab.
var Header = []string{"Ingredient", "Quantity", "Unit"}

// Ports for outbound adapters.
type (
	// Export is one shopping list ready to be written to a spreadsheet tab.
	Export struct {
		Username string
		From     core.Date
		To       core.Date
		List     shopping.List
	}

	// ListWriter replaces the content of the export's tab with its rows.
	ListWriter interface {
		WriteShoppingList(ctx context.Context, e Export) (ref string, err error)
	}
)

// TabTitle names the tab "<username> <from>..<to>".
func (e Export) TabTitle() string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(e.Username))
	return fmt.Sprintf("%s %s..%s", name, e.From, e.To)
}

// Rows renders the header and one row per partial quantity. Items whose
// quantities could not be combined span several rows.
func (e Export) Rows() [][]string {
	rows := [][]string{append([]string(nil), Header...)}
	for _, it := range e.List.Items {
		for _, q := range it.Quantities {
			unit := ""
			if !q.Unit.IsNone() {
				unit = q.Unit.Name
			}
			rows = append(rows, []string{it.Name, units.FormatValue(q.Value), unit})
		}
	}
	return rows
}
