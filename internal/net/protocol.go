package net

import (
	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/rules"
)

// Message types for the JSON protocol over WebSocket.
const (
	TypePing                = "ping"
	TypePong                = "pong"
	TypeDecode              = "decode"
	TypeDeck                = "deck"
	TypeResolvePermissions  = "resolve_permissions"
	TypePermission          = "permission"
	TypeResolveInstructions = "resolve_instructions"
	TypeInstructions        = "instructions"
	TypeError               = "error"
)

// Error codes carried by "error" messages.
const (
	CodeEmptyInput         = "empty_input"
	CodeUnrecognizedFormat = "unrecognized_format"
	CodeBadRequest         = "bad_request"
)

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"` // echoed back on the response

	// For "decode"
	Code string `json:"code,omitempty"`

	// For "resolve_permissions"
	Permissions []rules.EffectPermission `json:"permissions,omitempty"`

	// For "resolve_instructions"
	Instructions []rules.GameInstruction `json:"instructions,omitempty"`
}

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`

	// For "pong"
	Message string `json:"message,omitempty"`

	// For "deck"
	Deck *deck.ImportedDeck `json:"deck,omitempty"`

	// For "permission"
	Permission *rules.PermissionResolution `json:"permission,omitempty"`

	// For "instructions"
	Instructions *rules.InstructionResolution `json:"instructions,omitempty"`

	// For "error"
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}
