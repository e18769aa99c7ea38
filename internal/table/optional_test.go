package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_ZeroValueIsAbsent(t *testing.T) {
	var o Optional[string]
	v, ok := o.Get()
	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.False(t, o.IsPresent())
}

func TestOptional_Some(t *testing.T) {
	o := Some(42)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, o.OrElse(7))
}

func TestOptional_NoneOrElse(t *testing.T) {
	assert.Equal(t, 7, None[int]().OrElse(7))
}

func TestOptional_MarshalJSON(t *testing.T) {
	type book struct {
		Title string `json:"titulo"`
	}

	data, err := json.Marshal(Some(book{Title: "Dom Quixote"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"titulo":"Dom Quixote"}`, string(data))

	data, err = json.Marshal(None[book]())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
