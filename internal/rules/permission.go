package rules

// Source says where a permission assertion comes from.
type Source string

const (
	SourceRule Source = "rule"
	SourceCard Source = "card"
)

// PermissionType is the direction of a permission assertion.
type PermissionType string

const (
	Allow  PermissionType = "allow"
	Forbid PermissionType = "forbid"
)

// EffectPermission is one signal for or against a single action or effect.
type EffectPermission struct {
	Source      Source         `json:"source"`
	Type        PermissionType `json:"type"`
	Description string         `json:"description"`
	RuleID      string         `json:"ruleId,omitempty"`
}

// PermissionResolution is the outcome of ResolvePermissions.
type PermissionResolution struct {
	Allowed       bool   `json:"allowed"`
	AppliedRuleID string `json:"appliedRuleId"`
	Reason        string `json:"reason"`
}

// ResolvePermissions decides whether an action is allowed. Precedence:
// a card forbidding it (054.1), then a card allowing it (002), then the
// first rule forbidding it, and finally the permissive default (000).
func ResolvePermissions(permissions []EffectPermission) PermissionResolution {
	if hasAssertion(permissions, SourceCard, Forbid) {
		return PermissionResolution{
			Allowed:       false,
			AppliedRuleID: RuleCantBeatsCan,
			Reason:        "A card forbids this action or effect.",
		}
	}

	if hasAssertion(permissions, SourceCard, Allow) {
		return PermissionResolution{
			Allowed:       true,
			AppliedRuleID: RuleGolden,
			Reason:        "A card explicitly permits this action or effect.",
		}
	}

	for _, p := range permissions {
		if p.Source == SourceRule && p.Type == Forbid {
			ruleID := p.RuleID
			if ruleID == "" {
				ruleID = RuleNone
			}
			return PermissionResolution{
				Allowed:       false,
				AppliedRuleID: ruleID,
				Reason:        "A core rule forbids this action or effect.",
			}
		}
	}

	return PermissionResolution{
		Allowed:       true,
		AppliedRuleID: RuleNone,
		Reason:        "No rule or card forbids this action or effect.",
	}
}

func hasAssertion(permissions []EffectPermission, source Source, typ PermissionType) bool {
	for _, p := range permissions {
		if p.Source == source && p.Type == typ {
			return true
		}
	}
	return false
}
