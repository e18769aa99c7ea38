package table

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name     string
	Category string
	N        int
}

func byCategory(r row) string { return r.Category }

func sampleRows() []row {
	return []row{
		{Name: "a", Category: "x", N: 1},
		{Name: "b", Category: "y", N: 2},
		{Name: "c", Category: "x", N: 3},
		{Name: "d", Category: "z", N: 4},
		{Name: "e", Category: "x", N: 5},
	}
}

func TestFindOne_ReturnsFirstMatch(t *testing.T) {
	got := FindOne(sampleRows(), byCategory, "x")
	r, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "a", r.Name)
}

func TestFindOne_AbsentWhenNoMatch(t *testing.T) {
	got := FindOne(sampleRows(), byCategory, "missing")
	assert.False(t, got.IsPresent())
}

func TestFindOne_AbsentOnEmptyInput(t *testing.T) {
	assert.False(t, FindOne(nil, byCategory, "x").IsPresent())
	assert.False(t, FindOne([]row{}, byCategory, "x").IsPresent())
}

func TestFilterBy_PreservesOrder(t *testing.T) {
	got := FilterBy(sampleRows(), byCategory, "x")
	names := TransformEach(got, func(r row) string { return r.Name })
	assert.Equal(t, []string{"a", "c", "e"}, names)
}

func TestFilterBy_EmptyNotNil(t *testing.T) {
	got := FilterBy(sampleRows(), byCategory, "missing")
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = FilterBy(nil, byCategory, "x")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterBy_DoesNotMutateInput(t *testing.T) {
	in := sampleRows()
	snapshot := sampleRows()

	out := FilterBy(in, byCategory, "x")
	out[0].Name = "changed"

	assert.Equal(t, snapshot, in)
}

func TestWhere_Predicate(t *testing.T) {
	got := Where(sampleRows(), func(r row) bool { return r.N%2 == 0 })
	assert.Equal(t, []row{{Name: "b", Category: "y", N: 2}, {Name: "d", Category: "z", N: 4}}, got)
}

func TestTransformEach_LengthAndImmutability(t *testing.T) {
	in := sampleRows()
	snapshot := sampleRows()

	out := TransformEach(in, func(r row) int { return r.N * 10 })

	assert.Equal(t, []int{10, 20, 30, 40, 50}, out)
	assert.Len(t, out, len(in))
	assert.Equal(t, snapshot, in)
}

func TestTransformEach_EmptyNotNil(t *testing.T) {
	out := TransformEach([]row{}, func(r row) int { return r.N })
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTryTransformEach_StopsAtFirstError(t *testing.T) {
	_, err := TryTransformEach(sampleRows(), func(r row) (int, error) {
		if r.Name == "c" {
			return 0, assert.AnError
		}
		return r.N, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "record 2")
}

func TestTryTransformEach_Success(t *testing.T) {
	out, err := TryTransformEach(sampleRows(), func(r row) (string, error) { return r.Name, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out)
}

// randomRows builds a deterministic pseudo-random sequence over a small
// category domain so that matches, misses and repeats all occur.
func randomRows(rng *rand.Rand, n int) []row {
	cats := []string{"x", "y", "z"}
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{Name: string(rune('a' + i%26)), Category: cats[rng.Intn(len(cats))], N: i}
	}
	return rows
}

func TestFilterBy_SoundAndComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		rows := randomRows(rng, rng.Intn(12))
		for _, cat := range []string{"x", "y", "z", "w"} {
			got := FilterBy(rows, byCategory, cat)

			// Soundness: every returned row matches.
			for _, r := range got {
				assert.Equal(t, cat, r.Category)
			}

			// Completeness and order: the matching rows of the input, as a subsequence.
			var want []row
			for _, r := range rows {
				if r.Category == cat {
					want = append(want, r)
				}
			}
			assert.Equal(t, len(want), len(got))
			for i := range want {
				assert.Equal(t, want[i], got[i])
			}
		}
	}
}

func TestFindOne_AgreesWithFilterBy(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for iter := 0; iter < 200; iter++ {
		rows := randomRows(rng, rng.Intn(8))
		for _, cat := range []string{"x", "y", "z", "w"} {
			found := FindOne(rows, byCategory, cat)
			filtered := FilterBy(rows, byCategory, cat)

			r, ok := found.Get()
			assert.Equal(t, len(filtered) > 0, ok)
			if ok {
				assert.Equal(t, filtered[0], r)
			}
		}
	}
}
