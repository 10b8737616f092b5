package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

// Router exposes the tourism RAG service's external HTTP surface:
// document ingestion, session administration, and the query endpoint
// (batch JSON or streaming SSE). It intentionally does not carry an
// OpenAI-compatible chat surface — nothing in scope calls for one.
type Router struct {
	query     ports.QueryService
	ingest    ports.DocumentIngestor
	documents ports.DocumentReader
	sessions  ports.SessionAdmin
}

func NewRouter(query ports.QueryService, ingest ports.DocumentIngestor, documents ports.DocumentReader, sessions ports.SessionAdmin) *Router {
	return &Router{query: query, ingest: ingest, documents: documents, sessions: sessions}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocument)
	mux.HandleFunc("/v1/chunks/", rt.getChunk)
	mux.HandleFunc("/v1/sessions", rt.createSession)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubroute)
	mux.HandleFunc("/v1/query", rt.query1)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read uploaded file"})
		return
	}

	doc, err := rt.ingest.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}
	doc, err := rt.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) getChunk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/chunks/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chunk id is required"})
		return
	}
	chunk, err := rt.documents.GetChunk(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		UserType string `json:"user_type"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.UserType == "" {
		req.UserType = "guest"
	}
	id, err := rt.sessions.CreateSession(r.Context(), req.UserType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// sessionSubroute dispatches /v1/sessions/{id}/reset and
// /v1/sessions/{id}/filters, the only two sub-resources under a session.
func (rt *Router) sessionSubroute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	switch {
	case strings.HasSuffix(rest, "/reset"):
		rt.resetSession(w, r, strings.TrimSuffix(rest, "/reset"))
	case strings.HasSuffix(rest, "/filters"):
		rt.sessionFilters(w, r, strings.TrimSuffix(rest, "/filters"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session route"})
	}
}

func (rt *Router) resetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}
	if err := rt.sessions.ResetSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (rt *Router) sessionFilters(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}
	filters, err := rt.sessions.ActiveFilters(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (rt *Router) query1(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
		UserType  string `json:"user_type"`
		Utterance string `json:"utterance"`
		Stream    bool   `json:"stream"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "utterance is required"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}
	if req.UserType == "" {
		req.UserType = "guest"
	}

	wantsStream := req.Stream || strings.Contains(r.Header.Get("Accept"), "text/event-stream")

	answer, events, err := rt.query.Query(r.Context(), req.SessionID, req.UserType, req.Utterance, wantsStream)
	if err != nil {
		writeError(w, err)
		return
	}
	if !wantsStream {
		writeJSON(w, http.StatusOK, answer)
		return
	}
	streamSSE(w, r, events)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
