package web

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"

	"github.com/doeshing/datatalk/internal/domain"
)

const maxAskBody = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Sent           bool   `json:"sent"`
	Summary        string `json:"summary"`
	TableHTML      string `json:"table_html"`
	Loading        bool   `json:"loading"`
	ResultsVisible bool   `json:"results_visible"`
}

type pageData struct {
	Messages       []domain.Message
	Summary        string
	Table          template.HTML
	Loading        bool
	ResultsVisible bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.sessions.Controller(w, r).View()
	data := pageData{
		Messages: view.Messages,
		Summary:  view.Summary,
		// the renderer escapes every cell before building the table
		Table:          template.HTML(view.TableHTML),
		Loading:        view.Loading,
		ResultsVisible: view.ResultsVisible,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page", err, nil)
	}
}

func (s *Server) handleAskForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBody)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctrl := s.sessions.Controller(w, r)
	ctrl.Submit(r.Context(), r.PostFormValue("question"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAskAPI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAskBody))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if !json.Valid(body) {
		writeJSONError(w, http.StatusBadRequest, "request body must be JSON")
		return
	}
	if err := validateAsk(body); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl := s.sessions.Controller(w, r)
	_, sent := ctrl.Submit(r.Context(), req.Question)
	view := ctrl.View()

	resp := askResponse{Sent: sent, Loading: view.Loading, ResultsVisible: view.ResultsVisible}
	if sent {
		resp.Summary = view.Summary
		resp.TableHTML = view.TableHTML
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
