package testutil

import (
	"testing"

	"github.com/roach88/tabula/internal/record"
)

// Dataset builds a dataset from native rows, failing the test on error.
func Dataset(t testing.TB, name string, rows ...map[string]any) *record.Dataset {
	t.Helper()
	ds, err := record.FromMaps(name, rows)
	if err != nil {
		t.Fatalf("build dataset %q: %v", name, err)
	}
	return ds
}

// Livros is the books dataset of the exercises.
func Livros(t testing.TB) *record.Dataset {
	return Dataset(t, "livros",
		map[string]any{"titulo": "Harry Potter", "autor": "J.K. Rowling", "ano": 1997, "categoria": "fantasia"},
		map[string]any{"titulo": "Senhor dos Anéis", "autor": "J.R.R. Tolkien", "ano": 1954, "categoria": "fantasia"},
		map[string]any{"titulo": "Dom Quixote", "autor": "Miguel de Cervantes", "ano": 1605, "categoria": "aventura"},
		map[string]any{"titulo": "As Crônicas de Nárnia", "autor": "C.S. Lewis", "ano": 1950, "categoria": "fantasia"},
	)
}

// Pessoas is the people dataset of the exercises.
func Pessoas(t testing.TB) *record.Dataset {
	return Dataset(t, "pessoas",
		map[string]any{"nome": "Ana", "idade": 30, "sexo": "F"},
		map[string]any{"nome": "Bruno", "idade": 25, "sexo": "M"},
		map[string]any{"nome": "Carla", "idade": 40, "sexo": "F"},
	)
}

// Estudantes is the students dataset of the exercises.
func Estudantes(t testing.TB) *record.Dataset {
	return Dataset(t, "estudantes",
		map[string]any{"id": 1, "nome": "Ana", "notaProva": 8, "notaTrabalho": 6},
		map[string]any{"id": 2, "nome": "Bruno", "notaProva": 5, "notaTrabalho": 10},
	)
}

// Vazio is an empty dataset.
func Vazio(t testing.TB) *record.Dataset {
	return Dataset(t, "vazio")
}
