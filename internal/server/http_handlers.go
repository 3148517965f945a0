package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mseren/cortexviz/pkg/smg"
)

func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", s.router)
}

// router is the manual top-level router. It inspects the URL and delegates
// to the correct handler.
func (s *Server) router(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// --- Debug endpoints (pprof) ---
	if strings.HasPrefix(path, "/debug/pprof") {
		switch {
		case path == "/debug/pprof/":
			pprof.Index(w, r)
		case path == "/debug/pprof/cmdline":
			pprof.Cmdline(w, r)
		case path == "/debug/pprof/profile":
			pprof.Profile(w, r)
		case path == "/debug/pprof/symbol":
			pprof.Symbol(w, r)
		case path == "/debug/pprof/trace":
			pprof.Trace(w, r)
		default:
			s.writeHTTPError(w, http.StatusNotFound, "pprof endpoint not found")
		}
		return
	}

	if path == "/metrics" {
		promhttp.Handler().ServeHTTP(w, r)
		return
	}

	// --- Graph endpoints ---
	switch path {
	case "/graph/load":
		s.handleGraphLoad(w, r)
		return
	case "/graph/save":
		s.handleGraphSave(w, r)
		return
	case "/graph/export":
		s.handleGraphExport(w, r)
		return
	case "/graph/validate":
		s.handleGraphValidate(w, r)
		return
	case "/graph/stats":
		s.handleGraphStats(w, r)
		return
	case "/scene":
		s.handleScene(w, r)
		return
	case "/session":
		s.handleSessionCreate(w, r)
		return
	}

	if rest, ok := strings.CutPrefix(path, "/session/"); ok {
		s.handleSession(w, r, rest)
		return
	}
	if rest, ok := strings.CutPrefix(path, "/note/"); ok {
		s.handleNote(w, r, rest)
		return
	}

	s.writeHTTPError(w, http.StatusNotFound, "endpoint not found")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGraphLoad replaces the current graph from a snapshot document in the
// request body. A parse failure keeps the previous graph untouched.
func (s *Server) handleGraphLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Load(data); err != nil {
		var perr *smg.ParseError
		if errors.As(err, &perr) {
			s.writeHTTPError(w, http.StatusBadRequest, perr.Error())
			return
		}
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Validation diagnostics never block a load.
	report := smg.Validate(s.store.Graph())
	s.writeHTTPResponse(w, http.StatusOK, validateResponse{
		Errors:   report.Errors,
		Warnings: report.Warnings,
	})
}

// handleGraphSave writes the snapshot back to the configured path. Refused
// entirely, with no partial write, when validation reports errors.
func (s *Server) handleGraphSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	if s.cfg.SnapshotPath == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "no snapshot_path configured")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Serialize into memory first so a refused save leaves no file behind.
	var buf bytes.Buffer
	if err := s.store.Save(&buf); err != nil {
		if errors.Is(err, smg.ErrValidationFailed) {
			s.writeHTTPError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := os.WriteFile(s.cfg.SnapshotPath, buf.Bytes(), 0o644); err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"saved": s.cfg.SnapshotPath})
}

// handleGraphExport streams the re-serialized snapshot to the client.
func (s *Server) handleGraphExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Save(w); err != nil {
		if errors.Is(err, smg.ErrValidationFailed) {
			s.writeHTTPError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleGraphValidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	report := smg.Validate(s.store.Graph())
	s.mu.Unlock()

	s.writeHTTPResponse(w, http.StatusOK, validateResponse{
		Errors:   report.Errors,
		Warnings: report.Warnings,
	})
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := 0
	for _, n := range s.store.Graph().Notes {
		edges += len(n.Related)
	}
	s.writeHTTPResponse(w, http.StatusOK, statsResponse{
		Notes:          s.store.Len(),
		RelatedLinks:   edges,
		LongRangeLinks: len(s.store.Graph().LongRange),
		Clusters:       len(s.store.ClusterIDs()),
	})
}

// handleScene builds one view. When a session is named and the request does
// not pin a note, the session's current selection is used.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.UseSelection && req.SessionID != "" {
		if sess, ok := s.session(req.SessionID); ok {
			req.Request.NoteID = sess.Current
		}
	}

	built, err := s.builder.Build(req.Request)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, built)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	s.mu.Lock()
	sess := s.newSession()
	s.mu.Unlock()

	s.writeHTTPResponse(w, http.StatusCreated, sessionView(sess))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, rest string) {
	id, action, _ := strings.Cut(rest, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.session(id)
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "unknown session")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.writeHTTPResponse(w, http.StatusOK, sessionView(sess))
	case action == "select" && r.Method == http.MethodPut:
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if _, exists := s.store.NoteByID(req.NoteID); !exists {
			s.writeHTTPError(w, http.StatusNotFound, "unknown note id")
			return
		}
		sess.Current = req.NoteID
		s.writeHTTPResponse(w, http.StatusOK, sessionView(sess))
	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "unsupported session operation")
	}
}

// handleNote serves GET (inspect), PATCH (edit) and DELETE for one note.
func (s *Server) handleNote(w http.ResponseWriter, r *http.Request, rest string) {
	id, err := strconv.Atoi(rest)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.handleNoteGet(w, id)
	case http.MethodPatch:
		s.handleNoteEdit(w, r, id)
	case http.MethodDelete:
		sess := s.sessionFromQuery(r)
		s.mutator.DeleteNote(sess, id)
		s.writeHTTPResponse(w, http.StatusOK, sessionView(sess))
	default:
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "use GET, PATCH or DELETE")
	}
}

func (s *Server) handleNoteGet(w http.ResponseWriter, id int) {
	note, ok := s.store.NoteByID(id)
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "note not found")
		return
	}

	resp := noteResponse{
		NoteID:     note.ID,
		RawContent: note.RawContent,
		Context:    note.Context,
		Outbound:   []linkResponse{},
		Inbound:    []linkResponse{},
		LongRange:  []linkResponse{},
	}
	if c, ok := s.store.ClusterOf(id); ok {
		resp.Cluster = &c
	}
	for _, l := range note.RelatedByScore() {
		resp.Outbound = append(resp.Outbound, linkResponse{NoteID: l.Target, Score: l.Score})
	}
	for src, score := range s.store.ReverseRelated(id) {
		resp.Inbound = append(resp.Inbound, linkResponse{NoteID: src, Score: score})
	}
	for _, l := range s.store.LongRangeAdj(id) {
		resp.LongRange = append(resp.LongRange, linkResponse{NoteID: l.Other, Score: l.Score})
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleNoteEdit(w http.ResponseWriter, r *http.Request, id int) {
	var req editNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	sess := s.sessionByID(req.SessionID)
	err := s.mutator.EditNote(sess, id, smg.EditFields{
		RawContent:  req.RawContent,
		Context:     req.Context,
		RelatedText: req.RelatedText,
	})
	if err != nil {
		if errors.Is(err, smg.ErrNoteNotFound) {
			s.writeHTTPError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, sessionView(sess))
}

// sessionFromQuery resolves ?session_id=...; mutations without a session get
// a throwaway one so warnings still reach the response.
func (s *Server) sessionFromQuery(r *http.Request) *smg.Session {
	return s.sessionByID(r.URL.Query().Get("session_id"))
}

func (s *Server) sessionByID(id string) *smg.Session {
	if id != "" {
		if sess, ok := s.session(id); ok {
			return sess
		}
	}
	return smg.NewSession()
}

func sessionView(sess *smg.Session) sessionResponse {
	warnings := sess.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return sessionResponse{
		SessionID: sess.ID,
		Current:   sess.Current,
		Dirty:     sess.Dirty,
		Warnings:  warnings,
	}
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
