package deck

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LibraryFile represents the top-level YAML structure of a deck library.
type LibraryFile struct {
	Decks []LibraryEntry `yaml:"decks"`
}

// LibraryEntry is a named deck code in the library.
type LibraryEntry struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// LoadLibrary reads and parses a YAML deck library file.
func LoadLibrary(path string) (*LibraryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLibrary(data)
}

// ParseLibrary parses deck library YAML.
func ParseLibrary(data []byte) (*LibraryFile, error) {
	var lf LibraryFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse deck library YAML: %w", err)
	}
	return &lf, nil
}

// DeckByNumber decodes the Nth deck (1-indexed) in the library. The library
// entry's name is used when the deck code does not carry one.
func (lf *LibraryFile) DeckByNumber(n int) (*ImportedDeck, error) {
	if n < 1 || n > len(lf.Decks) {
		return nil, fmt.Errorf("deck %d not found (have %d decks)", n, len(lf.Decks))
	}
	entry := lf.Decks[n-1]
	d, err := Decode(entry.Code)
	if err != nil {
		return nil, fmt.Errorf("decode deck %d (%s): %w", n, entry.Name, err)
	}
	if d.Name == "" {
		d.Name = entry.Name
	}
	return d, nil
}

// DeckByName decodes the first library deck with the given name.
func (lf *LibraryFile) DeckByName(name string) (*ImportedDeck, error) {
	for i, entry := range lf.Decks {
		if entry.Name == name {
			return lf.DeckByNumber(i + 1)
		}
	}
	return nil, fmt.Errorf("deck %q not found", name)
}
