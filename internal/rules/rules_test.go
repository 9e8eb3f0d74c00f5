package rules

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cardForbid() EffectPermission {
	return EffectPermission{Source: SourceCard, Type: Forbid, Description: "Can't be chosen"}
}

func cardAllow() EffectPermission {
	return EffectPermission{Source: SourceCard, Type: Allow, Description: "May play at reaction speed"}
}

func ruleForbid(id string) EffectPermission {
	return EffectPermission{Source: SourceRule, Type: Forbid, Description: "Only at action speed", RuleID: id}
}

func ruleAllow() EffectPermission {
	return EffectPermission{Source: SourceRule, Type: Allow, Description: "Play during your turn"}
}

func TestResolvePermissions(t *testing.T) {
	tests := []struct {
		name        string
		permissions []EffectPermission
		wantAllowed bool
		wantRule    string
	}{
		{"no assertions", nil, true, RuleNone},
		{"empty list", []EffectPermission{}, true, RuleNone},
		{"rule allow only", []EffectPermission{ruleAllow()}, true, RuleNone},
		{"all four kinds", []EffectPermission{ruleAllow(), ruleForbid("123"), cardAllow(), cardForbid()}, false, RuleCantBeatsCan},
		{"card forbid beats card allow", []EffectPermission{cardAllow(), cardForbid()}, false, RuleCantBeatsCan},
		{"card allow beats rule forbid", []EffectPermission{ruleForbid("123"), cardAllow()}, true, RuleGolden},
		{"first rule forbid is cited", []EffectPermission{ruleForbid("999"), ruleForbid("111")}, false, "999"},
		{"rule forbid after rule allow", []EffectPermission{ruleAllow(), ruleForbid("111")}, false, "111"},
		{"rule forbid without id", []EffectPermission{ruleForbid(""), ruleForbid("111")}, false, RuleNone},
		{"unknown source ignored", []EffectPermission{{Source: "player", Type: Forbid}}, true, RuleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePermissions(tt.permissions)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			assert.Equal(t, tt.wantRule, got.AppliedRuleID)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestResolvePermissions_DoesNotMutateInput(t *testing.T) {
	in := []EffectPermission{ruleForbid(""), cardAllow()}
	before := append([]EffectPermission(nil), in...)

	ResolvePermissions(in)

	assert.Equal(t, before, in)
}

func TestResolveInstructions_AllImpossible(t *testing.T) {
	got := ResolveInstructions([]GameInstruction{
		{ID: "a", Description: "Draw 1", Possible: false},
		{ID: "b", Description: "Deal 2", Possible: false},
	})

	assert.Empty(t, got.Instructions)
	assert.NotNil(t, got.Instructions)
	assert.Equal(t, RuleImpossibleInstructions, got.AppliedRuleID)
	assert.Equal(t, NoEffectNote, got.Note)
	assert.True(t, got.NoEffect())
}

func TestResolveInstructions_Empty(t *testing.T) {
	got := ResolveInstructions(nil)
	assert.Empty(t, got.Instructions)
	assert.Equal(t, RuleImpossibleInstructions, got.AppliedRuleID)
}

func TestResolveInstructions_PartiallyPossible(t *testing.T) {
	x := GameInstruction{ID: "x", Description: "Draw 1", Possible: true}
	z := GameInstruction{ID: "z", Description: "Ready a unit", Possible: true}

	got := ResolveInstructions([]GameInstruction{
		x,
		{ID: "y", Description: "Kill a gear", Possible: false},
		z,
	})

	assert.Equal(t, []GameInstruction{x, z}, got.Instructions)
	assert.Empty(t, got.AppliedRuleID)
	assert.Empty(t, got.Note)
	assert.False(t, got.NoEffect())
}

func TestCoreRules(t *testing.T) {
	all := All()
	require.Len(t, all, 6)

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
		assert.NotEmpty(t, r.Title, r.ID)
		assert.NotEmpty(t, r.Text, r.ID)
	}
	assert.Equal(t, []string{"002", "051", "052", "053", "054.1", "266"}, ids)

	for _, id := range []string{RuleGolden, RuleCantBeatsCan, RuleImpossibleInstructions} {
		_, ok := Lookup(id)
		assert.True(t, ok, "rule %s cited by the resolvers must be in the table", id)
	}

	r, ok := Lookup(RuleCantBeatsCan)
	require.True(t, ok)
	assert.Equal(t, "Can't Beats Can", r.Title)

	_, ok = Lookup(RuleNone)
	assert.False(t, ok)
}

func TestCoreRules_AllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Title = "changed"

	r, _ := Lookup(all[0].ID)
	assert.Equal(t, "Golden Rule", r.Title)
	assert.Equal(t, "Golden Rule", All()[0].Title)
}

func TestCoreRules_ConcurrentLoad(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := Lookup(RuleGolden)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestParseTable_Errors(t *testing.T) {
	_, err := parseTable([]byte("rules:\n  - title: No ID\n"))
	assert.Error(t, err)

	_, err = parseTable([]byte("rules:\n  - id: \"1\"\n  - id: \"1\"\n"))
	assert.Error(t, err)

	_, err = parseTable([]byte("rules: ["))
	assert.Error(t, err)
}
