package coursework

import "github.com/roach88/tabula/internal/table"

// Exam and coursework weights of the semester average, out of 10.
const (
	examWeight = 6
	workWeight = 4
)

// Student holds one student's semester grades.
type Student struct {
	ID   int     `json:"id" yaml:"id"`
	Name string  `json:"nome" yaml:"nome"`
	Exam float64 `json:"notaProva" yaml:"notaProva"`
	Work float64 `json:"notaTrabalho" yaml:"notaTrabalho"`
}

// SemesterAverage weighs the exam 6 and the coursework 4.
func SemesterAverage(s Student) float64 {
	return (s.Exam*examWeight + s.Work*workWeight) / (examWeight + workWeight)
}

// SemesterAverages returns each student's average, in input order.
func SemesterAverages(students []Student) []float64 {
	return table.TransformEach(students, SemesterAverage)
}
