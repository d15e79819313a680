package frid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFridErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	pe := NewParseError("unexpected token", cause)
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "ParseError")
	assert.Contains(t, pe.Error(), "boom")
}

func TestFridReprCarriesNotesAndCause(t *testing.T) {
	be := NewBackendError("write failed", errors.New("disk full"))
	be.Notes = []string{"retry 3 times"}
	repr := be.FridRepr()
	require := repr.Named()
	assert.Equal(t, "BackendError", require.Name)
	errVal, ok := require.KeyWords.Get("error")
	assert.True(t, ok)
	assert.Equal(t, "write failed", errVal.Text())
	causeVal, ok := require.KeyWords.Get("cause")
	assert.True(t, ok)
	assert.Equal(t, "disk full", causeVal.Text())
	notesVal, ok := require.KeyWords.Get("notes")
	assert.True(t, ok)
	assert.Equal(t, []Value{Text("retry 3 times")}, notesVal.Array())
}

func TestConfigErrorFieldFormatting(t *testing.T) {
	ce := NewConfigError("store", "orders", "dsn", "missing DSN")
	assert.Contains(t, ce.Error(), `field "dsn"`)
}
