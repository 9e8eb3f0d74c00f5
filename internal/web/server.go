package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/rift/internal/deck"
	riftnet "github.com/peterkuimelis/rift/internal/net"
	"github.com/peterkuimelis/rift/internal/rules"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DeckInfo is the JSON representation of a library deck for the /api/decks endpoint.
type DeckInfo struct {
	Number    int      `json:"number"`
	Name      string   `json:"name"`
	MainCount int      `json:"mainCount"`
	RuneCount int      `json:"runeCount"`
	Cards     []string `json:"cards"`
	Error     string   `json:"error,omitempty"`
}

type decodeRequest struct {
	Code string `json:"code"`
}

type permissionsRequest struct {
	Permissions []rules.EffectPermission `json:"permissions"`
}

type instructionsRequest struct {
	Instructions []rules.GameInstruction `json:"instructions"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Server is the rift HTTP API server.
type Server struct {
	decksFile string
	logger    *zap.Logger
	mux       *http.ServeMux
}

// NewServer creates a new web server. decksFile may be empty, in which case
// /api/decks reports an empty library.
func NewServer(decksFile string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		decksFile: decksFile,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/rules", s.handleRules)
	s.mux.HandleFunc("GET /api/rules/{id}", s.handleRule)
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)
	s.mux.HandleFunc("POST /api/decks/decode", s.handleDecode)
	s.mux.HandleFunc("POST /api/permissions", s.handlePermissions)
	s.mux.HandleFunc("POST /api/instructions", s.handleInstructions)

	// WebSocket protocol endpoint
	s.mux.Handle("GET /ws", riftnet.NewServer(s.logger.Named("ws")))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rules.All())
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := rules.Lookup(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "rule not found"})
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	decks := []DeckInfo{}
	if s.decksFile == "" {
		writeJSON(w, http.StatusOK, decks)
		return
	}

	lib, err := deck.LoadLibrary(s.decksFile)
	if err != nil {
		s.logger.Error("could not load deck library", zap.String("path", s.decksFile), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load decks file"})
		return
	}

	for i, entry := range lib.Decks {
		di := DeckInfo{Number: i + 1, Name: entry.Name, Cards: []string{}}
		d, err := lib.DeckByNumber(i + 1)
		if err != nil {
			di.Error = err.Error()
			decks = append(decks, di)
			continue
		}
		di.Name = d.Name
		di.MainCount = d.MainCount()
		di.RuneCount = d.RuneCount()
		// Unique card IDs for display
		for _, e := range d.MainDeck {
			di.Cards = append(di.Cards, e.CardID)
		}
		for _, e := range d.RuneDeck {
			di.Cards = append(di.Cards, e.CardID)
		}
		decks = append(decks, di)
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	d, err := deck.Decode(req.Code)
	if err != nil {
		code := riftnet.CodeUnrecognizedFormat
		if errors.Is(err, deck.ErrEmptyInput) {
			code = riftnet.CodeEmptyInput
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: code})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionsRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, rules.ResolvePermissions(req.Permissions))
}

func (s *Server) handleInstructions(w http.ResponseWriter, r *http.Request) {
	var req instructionsRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, rules.ResolveInstructions(req.Instructions))
}

// readJSON decodes the request body into v, answering 400 on failure.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("bad request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Code: riftnet.CodeBadRequest})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("rift web API listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}
