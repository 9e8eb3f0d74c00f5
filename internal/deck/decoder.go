package deck

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyInput is returned when the deck code is blank.
	ErrEmptyInput = errors.New("deck code is empty")
	// ErrUnrecognizedFormat is returned when no known deck format matches.
	ErrUnrecognizedFormat = errors.New("unrecognized deck format")
)

// strategy tries to read a deck from trimmed input. ok is false when the
// input is not in the strategy's format.
type strategy func(input string) (deck *ImportedDeck, ok bool)

// strategies are tried in order; the first match wins.
var strategies = []strategy{
	parseStructured,
	parseEncodedStructured,
	parseLines,
}

// Decode reads a deck code in any supported format: a JSON or YAML document,
// the same document as URL-safe base64, or a "3x CARD-ID" line list.
func Decode(raw string) (*ImportedDeck, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return nil, ErrEmptyInput
	}
	for _, try := range strategies {
		if deck, ok := try(input); ok {
			return deck, nil
		}
	}
	return nil, ErrUnrecognizedFormat
}

// --- Structured documents ---

var (
	mainDeckKeys = []string{"mainDeck", "main", "deck", "cards"}
	runeDeckKeys = []string{"runeDeck", "rune", "runes"}
)

func parseStructured(input string) (*ImportedDeck, bool) {
	root, ok := parseDocument(input)
	if !ok {
		return nil, false
	}
	switch root.Kind {
	case yaml.SequenceNode:
		return &ImportedDeck{
			MainDeck: normalizeSection(root),
			RuneDeck: []SectionEntry{},
		}, true
	case yaml.MappingNode:
		return normalizeDeckMapping(root)
	default:
		return nil, false
	}
}

// parseDocument reads input into a node tree. JSON is read with the JSON
// tokenizer so every JSON escape is honored; anything else is read as YAML.
func parseDocument(input string) (*yaml.Node, bool) {
	if json.Valid([]byte(input)) {
		dec := json.NewDecoder(strings.NewReader(input))
		dec.UseNumber()
		root, err := jsonNode(dec)
		return root, err == nil
	}

	// YAML rejects tabs as indentation.
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		input = strings.ReplaceAll(input, "\t", " ")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false
	}
	return resolveAlias(doc.Content[0]), true
}

// jsonNode reads the next JSON value from dec as a node, keeping object
// keys in document order.
func jsonNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if v == '{' {
			node.Kind, node.Tag = yaml.MappingNode, "!!map"
		}
		for dec.More() {
			if node.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				name, _ := key.(string)
				node.Content = append(node.Content, scalarNode("!!str", name))
			}
			child, err := jsonNode(dec)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		// closing delimiter
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return node, nil
	case string:
		return scalarNode("!!str", v), nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return scalarNode("!!int", v.String()), nil
		}
		return scalarNode("!!float", v.String()), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(v)), nil
	case nil:
		return scalarNode("!!null", "null"), nil
	default:
		return nil, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func normalizeDeckMapping(root *yaml.Node) (*ImportedDeck, bool) {
	var name string
	if n := mappingValue(root, "name"); n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" {
		name = n.Value
	}

	// {"cards": {"main": ..., "rune": ...}}
	if cards := mappingValue(root, "cards"); cards != nil && cards.Kind == yaml.MappingNode {
		main, runes := mappingValue(cards, "main"), mappingValue(cards, "rune")
		if main != nil || runes != nil {
			return &ImportedDeck{
				Name:     name,
				MainDeck: normalizeSection(main),
				RuneDeck: normalizeSection(runes),
			}, true
		}
	}

	main := firstMappingValue(root, mainDeckKeys)
	runes := firstMappingValue(root, runeDeckKeys)
	if main == nil && runes == nil {
		return nil, false
	}
	return &ImportedDeck{
		Name:     name,
		MainDeck: normalizeSection(main),
		RuneDeck: normalizeSection(runes),
	}, true
}

// normalizeSection accepts a list of card IDs, a list of {cardId|id, count}
// objects, or an {id: count} object.
func normalizeSection(node *yaml.Node) []SectionEntry {
	b := newSectionBuilder()
	if node == nil {
		return b.entries()
	}
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			item = resolveAlias(item)
			switch item.Kind {
			case yaml.ScalarNode:
				if !isNull(item) {
					b.add(item.Value, 1)
				}
			case yaml.MappingNode:
				id := firstMappingValue(item, []string{"cardId", "id"})
				count := 1.0
				if c := mappingValue(item, "count"); c != nil {
					count = scalarCount(c)
				}
				if id != nil && id.Kind == yaml.ScalarNode {
					b.add(id.Value, count)
				}
			}
		}
	case yaml.MappingNode:
		// A repeated key keeps its first position and its last value.
		values := orderedmap.New[string, *yaml.Node]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			values.Set(node.Content[i].Value, resolveAlias(node.Content[i+1]))
		}
		for pair := values.Oldest(); pair != nil; pair = pair.Next() {
			b.add(pair.Key, scalarCount(pair.Value))
		}
	}
	return b.entries()
}

// scalarCount reads a numeric or numeric-string count. Anything else yields
// NaN, which the section builder turns into a single copy.
func scalarCount(node *yaml.Node) float64 {
	if node.Kind != yaml.ScalarNode || isNull(node) {
		return math.NaN()
	}
	n, err := cast.ToFloat64E(node.Value)
	if err != nil {
		return math.NaN()
	}
	return n
}

// mappingValue returns the value for key, or nil when it is missing or null.
// When the key repeats, the last value wins.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	var v *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			v = resolveAlias(node.Content[i+1])
		}
	}
	if v == nil || isNull(v) {
		return nil
	}
	return v
}

func firstMappingValue(node *yaml.Node, keys []string) *yaml.Node {
	for _, key := range keys {
		if v := mappingValue(node, key); v != nil {
			return v
		}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

// --- Base64-wrapped documents ---

func parseEncodedStructured(input string) (*ImportedDeck, bool) {
	text, ok := decodeBase64URL(input)
	if !ok {
		return nil, false
	}
	return parseStructured(strings.TrimSpace(text))
}

// decodeBase64URL undoes the URL-safe alphabet and missing padding of a
// base64url deck code, and requires the payload to be UTF-8 text.
func decodeBase64URL(input string) (string, bool) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(input)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// --- Line lists ---

var (
	lineSplitRe  = regexp.MustCompile(`\r?\n`)
	runeHeaderRe = regexp.MustCompile(`(?i)^rune\s+deck`)
	mainHeaderRe = regexp.MustCompile(`(?i)^main\s+deck`)
	cardLineRe   = regexp.MustCompile(`(?i)^(\d+)x?\s+(.+)$`)
)

func parseLines(input string) (*ImportedDeck, bool) {
	main, runes := newSectionBuilder(), newSectionBuilder()
	active := main
	parsedAny := false

	for _, line := range lineSplitRe.Split(input, -1) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if runeHeaderRe.MatchString(line) {
			active = runes
			continue
		}
		if mainHeaderRe.MatchString(line) {
			active = main
			continue
		}
		m := cardLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		parsedAny = true
		// Out-of-range counts come back clamped and are then read as one copy.
		count, _ := strconv.Atoi(m[1])
		active.add(m[2], float64(count))
	}

	if !parsedAny {
		return nil, false
	}
	return &ImportedDeck{
		MainDeck: main.entries(),
		RuneDeck: runes.entries(),
	}, true
}
