package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryYAML = `decks:
  - name: Fury Aggro
    code: |
      Main Deck
      3 PX-001
      2x PX-002
      Rune Deck
      4 PX-006
  - name: Encoded
    code: eyJjYXJkcyI6eyJtYWluIjp7IlBYLTAwMSI6MywiUFgtMDAyIjoyfSwicnVuZSI6eyJQWC0wMDYiOjR9fX0
  - name: Named In Code
    code: '{"name":"Calm Control","main":["PX-010"]}'
  - name: Broken
    code: not a deck
`

func TestLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(libraryYAML), 0o644))

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	require.Len(t, lib.Decks, 4)

	d, err := lib.DeckByNumber(1)
	require.NoError(t, err)
	assert.Equal(t, "Fury Aggro", d.Name)
	assert.Equal(t, 5, d.MainCount())
	assert.Equal(t, 4, d.RuneCount())

	d, err = lib.DeckByNumber(2)
	require.NoError(t, err)
	assert.Equal(t, "Encoded", d.Name)
	assert.Equal(t, 4, d.RuneCount())

	d, err = lib.DeckByName("Named In Code")
	require.NoError(t, err)
	assert.Equal(t, "Calm Control", d.Name)
}

func TestLibrary_Errors(t *testing.T) {
	lib, err := ParseLibrary([]byte(libraryYAML))
	require.NoError(t, err)

	_, err = lib.DeckByNumber(0)
	assert.Error(t, err)
	_, err = lib.DeckByNumber(5)
	assert.Error(t, err)
	_, err = lib.DeckByName("Missing")
	assert.Error(t, err)

	_, err = lib.DeckByNumber(4)
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	_, err = LoadLibrary(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = ParseLibrary([]byte("decks: [unterminated"))
	assert.Error(t, err)
}
