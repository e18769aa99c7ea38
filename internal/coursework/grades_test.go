package coursework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSemesterAverages(t *testing.T) {
	students := []Student{
		{ID: 1, Name: "João", Exam: 10, Work: 10},
		{ID: 2, Name: "Maria", Exam: 5, Work: 5},
		{ID: 3, Name: "José", Exam: 7, Work: 7},
	}
	assert.Equal(t, []float64{10, 5, 7}, SemesterAverages(students))
}

func TestSemesterAverage_Weights(t *testing.T) {
	assert.Equal(t, 6.0, SemesterAverage(Student{Exam: 10, Work: 0}))
	assert.Equal(t, 4.0, SemesterAverage(Student{Exam: 0, Work: 10}))
}
