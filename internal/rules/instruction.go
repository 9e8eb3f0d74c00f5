package rules

// GameInstruction is one candidate effect of a resolving card ability.
type GameInstruction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Possible    bool   `json:"possible"`
}

// InstructionResolution lists the instructions that actually execute.
// AppliedRuleID and Note are only set when nothing could execute.
type InstructionResolution struct {
	Instructions  []GameInstruction `json:"instructions"`
	AppliedRuleID string            `json:"appliedRuleId,omitempty"`
	Note          string            `json:"note,omitempty"`
}

// NoEffectNote accompanies a resolution where every instruction was impossible.
const NoEffectNote = "All instructions are impossible; resolve with no effect."

// ResolveInstructions keeps the possible instructions in their original
// order. A card whose instructions are all impossible still resolves, with
// no effect (266).
func ResolveInstructions(instructions []GameInstruction) InstructionResolution {
	possible := make([]GameInstruction, 0, len(instructions))
	for _, in := range instructions {
		if in.Possible {
			possible = append(possible, in)
		}
	}

	if len(possible) == 0 {
		return InstructionResolution{
			Instructions:  []GameInstruction{},
			AppliedRuleID: RuleImpossibleInstructions,
			Note:          NoEffectNote,
		}
	}
	return InstructionResolution{Instructions: possible}
}

// NoEffect reports whether the resolution executes nothing.
func (r InstructionResolution) NoEffect() bool {
	return len(r.Instructions) == 0
}
