package coursework

import "github.com/roach88/tabula/internal/table"

// Sex is the closed enumeration used to group people.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

// Sexes is the declared group domain for AverageAgeBySex.
var Sexes = []Sex{Male, Female}

// Person is one survey respondent.
type Person struct {
	Name string `json:"nome" yaml:"nome"`
	Age  int    `json:"idade" yaml:"idade"`
	Sex  Sex    `json:"sexo" yaml:"sexo"`
}

// AverageAgeBySex averages ages per sex. Both M and F are always present;
// a sex with nobody in it averages to 0.
func AverageAgeBySex(people []Person) map[Sex]float64 {
	return table.AverageBy(people,
		func(p Person) Sex { return p.Sex },
		func(p Person) float64 { return float64(p.Age) },
		Sexes,
	)
}
