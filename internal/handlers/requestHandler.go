package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmendez/archivista/internal/api"
	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/rag"
	"github.com/dmendez/archivista/pkg/logger_i"
)

type ChatHandler struct {
	svc    rag.Service
	model  string
	logger *logger_i.Logger
}

func New(svc rag.Service, model string) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		model:  model,
		logger: logger_i.NewLogger("Chat Handler"),
	}
}

// Health godoc
// @Summary      Service health
// @Description  Returns operational status, the configured generation model and the number of indexed fragments.
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Model:     h.model,
		Fragments: h.svc.Fragments(),
	})
}

// Chat godoc
// @Summary      Ask a question over the indexed documents
// @Description  Retrieves the top-k passages for the query and generates a grounded answer with cited sources.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "Query and optional top-k"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Empty or malformed query"
// @Failure      502      {object}  api.ErrorResponse  "An external service call failed"
// @Router       /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("bad chat request", "error", err)
		writeJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{Error: "malformed request body"})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{Error: "query is required"})
		return
	}

	answer, passages, err := h.svc.Answer(r.Context(), req.Query, req.K)
	if err != nil {
		h.logger.Error("answering failed", "error", err)
		writeJsonResponse(w, http.StatusBadGateway, api.ErrorResponse{Error: "upstream service failure"})
		return
	}

	sources := make([]api.Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, api.Source{
			Filename: p.Filename,
			Page:     p.Page,
			Text:     truncateRunes(p.Text, config.MaxSourceChars),
			Score:    p.Score,
		})
	}
	writeJsonResponse(w, http.StatusOK, api.ChatResponse{Answer: answer, Sources: sources})
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
