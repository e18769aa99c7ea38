package coursework

import "github.com/roach88/tabula/internal/table"

// GroceryItem is one line of a shopping list.
type GroceryItem struct {
	Name  string  `json:"nome" yaml:"nome"`
	Price float64 `json:"preco" yaml:"preco"`
}

// IncreasePrices returns every item's price multiplied by factor.
// items is left untouched.
func IncreasePrices(items []GroceryItem, factor float64) []float64 {
	return table.TransformEach(items, func(it GroceryItem) float64 {
		return it.Price * factor
	})
}
