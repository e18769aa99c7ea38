package coursework

import "github.com/roach88/tabula/internal/table"

// Book is a catalog entry.
type Book struct {
	Title  string `json:"titulo" yaml:"titulo"`
	Author string `json:"autor" yaml:"autor"`
	Year   int    `json:"ano" yaml:"ano"`
}

// CategorizedBook is a Book with a genre.
type CategorizedBook struct {
	Title    string `json:"titulo" yaml:"titulo"`
	Author   string `json:"autor" yaml:"autor"`
	Year     int    `json:"ano" yaml:"ano"`
	Category string `json:"categoria" yaml:"categoria"`
}

func bookTitle(b Book) string                { return b.Title }
func bookCategory(b CategorizedBook) string { return b.Category }

// FindBook returns the book with exactly the given title, or absent.
func FindBook(books []Book, title string) table.Optional[Book] {
	return table.FindOne(books, bookTitle, title)
}

// BooksByCategory returns the books of one category in catalog order.
// The result is empty, not absent, when the category has no books.
func BooksByCategory(books []CategorizedBook, category string) []CategorizedBook {
	return table.FilterBy(books, bookCategory, category)
}
