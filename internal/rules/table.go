package rules

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Rule IDs cited by the resolvers.
const (
	RuleNone                   = "000" // no rule applied; default permissive state
	RuleGolden                 = "002"
	RuleCantBeatsCan           = "054.1"
	RuleImpossibleInstructions = "266"
)

// CoreRule is one entry of the core rules reference table.
type CoreRule struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Text  string `yaml:"text" json:"text"`
}

//go:embed core_rules.yaml
var coreRulesYAML []byte

type ruleTable struct {
	ordered []CoreRule
	byID    map[string]CoreRule
}

var (
	tableOnce sync.Once
	table     *ruleTable
)

func loadTable() *ruleTable {
	tableOnce.Do(func() {
		t, err := parseTable(coreRulesYAML)
		if err != nil {
			panic(fmt.Sprintf("core rules table: %v", err))
		}
		table = t
	})
	return table
}

func parseTable(data []byte) (*ruleTable, error) {
	var doc struct {
		Rules []CoreRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse core rules YAML: %w", err)
	}
	t := &ruleTable{byID: make(map[string]CoreRule, len(doc.Rules))}
	for _, r := range doc.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %q has no id", r.Title)
		}
		if _, dup := t.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		t.byID[r.ID] = r
		t.ordered = append(t.ordered, r)
	}
	return t, nil
}

// All returns the core rules in table order.
func All() []CoreRule {
	t := loadTable()
	out := make([]CoreRule, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Lookup returns the core rule with the given ID.
func Lookup(id string) (CoreRule, bool) {
	r, ok := loadTable().byID[id]
	return r, ok
}
