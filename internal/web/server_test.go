package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterkuimelis/rift/internal/deck"
	riftnet "github.com/peterkuimelis/rift/internal/net"
	"github.com/peterkuimelis/rift/internal/rules"
)

const testDecksYAML = `decks:
  - name: Fury
    code: |
      3 PX-001
      Rune Deck
      2 R-1
  - name: Broken
    code: not a deck
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decks.yaml")
	if err := os.WriteFile(path, []byte(testDecksYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewServer(path, nil))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestRulesEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var all []rules.CoreRule
	if status := get(t, srv.URL+"/api/rules", &all); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(all) != len(rules.All()) {
		t.Errorf("got %d rules, want %d", len(all), len(rules.All()))
	}

	var rule rules.CoreRule
	if status := get(t, srv.URL+"/api/rules/266", &rule); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if rule.Title != "Impossible Instructions" {
		t.Errorf("rule = %+v", rule)
	}

	if status := get(t, srv.URL+"/api/rules/404", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestDecodeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var d deck.ImportedDeck
	status := post(t, srv.URL+"/api/decks/decode", `{"code":"[\"A\",\"A\",\"B\"]"}`, &d)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(d.MainDeck) != 2 || d.MainDeck[0].CardID != "A" || d.MainDeck[0].Count != 2 {
		t.Errorf("deck = %+v", d)
	}

	var e errorResponse
	if status := post(t, srv.URL+"/api/decks/decode", `{"code":"  "}`, &e); status != http.StatusBadRequest || e.Code != riftnet.CodeEmptyInput {
		t.Errorf("status = %d, error = %+v", status, e)
	}
	if status := post(t, srv.URL+"/api/decks/decode", `{"code":"not a deck"}`, &e); status != http.StatusBadRequest || e.Code != riftnet.CodeUnrecognizedFormat {
		t.Errorf("status = %d, error = %+v", status, e)
	}
	if status := post(t, srv.URL+"/api/decks/decode", `{`, &e); status != http.StatusBadRequest || e.Code != riftnet.CodeBadRequest {
		t.Errorf("status = %d, error = %+v", status, e)
	}
}

func TestDecksEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var decks []DeckInfo
	if status := get(t, srv.URL+"/api/decks", &decks); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(decks) != 2 {
		t.Fatalf("got %d decks, want 2", len(decks))
	}
	if d := decks[0]; d.Name != "Fury" || d.MainCount != 3 || d.RuneCount != 2 || len(d.Cards) != 2 {
		t.Errorf("deck 1 = %+v", d)
	}
	if decks[1].Error == "" {
		t.Errorf("deck 2 should report its decode error: %+v", decks[1])
	}
}

func TestDecksEndpoint_NoLibrary(t *testing.T) {
	srv := httptest.NewServer(NewServer("", nil))
	defer srv.Close()

	var decks []DeckInfo
	if status := get(t, srv.URL+"/api/decks", &decks); status != http.StatusOK || len(decks) != 0 {
		t.Errorf("status = %d, decks = %+v", status, decks)
	}

	missing := httptest.NewServer(NewServer(filepath.Join(t.TempDir(), "missing.yaml"), nil))
	defer missing.Close()
	if status := get(t, missing.URL+"/api/decks", nil); status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
}

func TestResolveEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var perm rules.PermissionResolution
	body := `{"permissions":[{"source":"rule","type":"forbid","ruleId":"999"},{"source":"rule","type":"forbid","ruleId":"111"}]}`
	if status := post(t, srv.URL+"/api/permissions", body, &perm); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if perm.Allowed || perm.AppliedRuleID != "999" {
		t.Errorf("permission = %+v", perm)
	}

	var res rules.InstructionResolution
	body = `{"instructions":[{"id":"a","possible":false},{"id":"b","possible":false}]}`
	if status := post(t, srv.URL+"/api/instructions", body, &res); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(res.Instructions) != 0 || res.AppliedRuleID != "266" || res.Note == "" {
		t.Errorf("instructions = %+v", res)
	}
}

func TestWebSocketMount(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := riftnet.Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	got, err := c.Ping(ctx)
	if err != nil || got != "Connected to "+url {
		t.Errorf("Ping = %q, %v", got, err)
	}
}
