package net

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/rules"
)

// RemoteError is an "error" message returned by the server.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error (%s): %s", e.Code, e.Message)
}

// Unwrap maps decode failures back to the deck package's sentinel errors.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeEmptyInput:
		return deck.ErrEmptyInput
	case CodeUnrecognizedFormat:
		return deck.ErrUnrecognizedFormat
	default:
		return nil
	}
}

// Client is a connection to a protocol server. Requests are sent one at a
// time; concurrent callers are serialized.
type Client struct {
	baseURL string
	conn    *websocket.Conn
	mu      sync.Mutex
}

// Connect dials the server's WebSocket endpoint, e.g. ws://localhost:9000/ws.
func Connect(ctx context.Context, baseURL string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	conn.SetReadLimit(readLimit)
	return &Client{baseURL: baseURL, conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// roundTrip sends msg and waits for the response carrying the same ID.
func (c *Client) roundTrip(ctx context.Context, msg ClientMessage) (ServerMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg.ID = uuid.NewString()
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		return ServerMessage{}, fmt.Errorf("send %s: %w", msg.Type, err)
	}

	var resp ServerMessage
	if err := wsjson.Read(ctx, c.conn, &resp); err != nil {
		return ServerMessage{}, fmt.Errorf("recv %s: %w", msg.Type, err)
	}
	if resp.ID != msg.ID {
		return ServerMessage{}, fmt.Errorf("recv %s: response id %q does not match request %q", msg.Type, resp.ID, msg.ID)
	}
	if resp.Type == TypeError {
		return ServerMessage{}, &RemoteError{Code: resp.ErrorCode, Message: resp.Error}
	}
	return resp, nil
}

func expect(resp ServerMessage, typ string) error {
	if resp.Type != typ {
		return fmt.Errorf("unexpected response type %q, want %q", resp.Type, typ)
	}
	return nil
}

// Ping checks the server is answering.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := c.roundTrip(ctx, ClientMessage{Type: TypePing})
	if err != nil {
		return "", err
	}
	if err := expect(resp, TypePong); err != nil {
		return "", err
	}
	return "Connected to " + c.baseURL, nil
}

// DecodeDeck asks the server to decode a deck code.
func (c *Client) DecodeDeck(ctx context.Context, code string) (*deck.ImportedDeck, error) {
	resp, err := c.roundTrip(ctx, ClientMessage{Type: TypeDecode, Code: code})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, TypeDeck); err != nil {
		return nil, err
	}
	if resp.Deck == nil {
		return nil, errors.New("deck response without a deck")
	}
	return resp.Deck, nil
}

// ResolvePermissions asks the server to resolve a set of permission assertions.
func (c *Client) ResolvePermissions(ctx context.Context, permissions []rules.EffectPermission) (rules.PermissionResolution, error) {
	resp, err := c.roundTrip(ctx, ClientMessage{Type: TypeResolvePermissions, Permissions: permissions})
	if err != nil {
		return rules.PermissionResolution{}, err
	}
	if err := expect(resp, TypePermission); err != nil {
		return rules.PermissionResolution{}, err
	}
	if resp.Permission == nil {
		return rules.PermissionResolution{}, errors.New("permission response without a resolution")
	}
	return *resp.Permission, nil
}

// ResolveInstructions asks the server to resolve a card's instructions.
func (c *Client) ResolveInstructions(ctx context.Context, instructions []rules.GameInstruction) (rules.InstructionResolution, error) {
	resp, err := c.roundTrip(ctx, ClientMessage{Type: TypeResolveInstructions, Instructions: instructions})
	if err != nil {
		return rules.InstructionResolution{}, err
	}
	if err := expect(resp, TypeInstructions); err != nil {
		return rules.InstructionResolution{}, err
	}
	if resp.Instructions == nil {
		return rules.InstructionResolution{}, errors.New("instructions response without a resolution")
	}
	return *resp.Instructions, nil
}
