// Package api exposes the editorial workflow over HTTP/JSON.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"newsroom/internal/domain"
)

type Generator interface {
	Generate(ctx context.Context, req domain.ProspectRequest) (*domain.BatchResult, error)
}

type Editor interface {
	Get(ctx context.Context, id string) (domain.Article, error)
	Edit(ctx context.Context, id, title, content string) (domain.Article, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (domain.Article, error)
	ReplaceImage(ctx context.Context, id string, img domain.GeneratedImage) (domain.Article, error)
	RegenerateImage(ctx context.Context, id string) (domain.Article, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Article, error)
	Counts(ctx context.Context) (domain.StatusCounts, error)
}

type Handler struct {
	generator Generator
	editor    Editor
	logger    *slog.Logger
}

func NewHandler(generator Generator, editor Editor, logger *slog.Logger) *Handler {
	return &Handler{
		generator: generator,
		editor:    editor,
		logger:    logger.With("component", "api"),
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/batches", h.createBatch)
	mux.HandleFunc("GET /api/articles", h.listArticles)
	mux.HandleFunc("GET /api/articles/{id}", h.getArticle)
	mux.HandleFunc("PUT /api/articles/{id}", h.editArticle)
	mux.HandleFunc("PUT /api/articles/{id}/status", h.setStatus)
	mux.HandleFunc("PUT /api/articles/{id}/image", h.replaceImage)
	mux.HandleFunc("POST /api/articles/{id}/image/regenerate", h.regenerateImage)
	mux.HandleFunc("GET /api/stats", h.stats)
	return mux
}

type batchRequest struct {
	Keywords     []string `json:"keywords"`
	TimeRange    string   `json:"time_range"`
	Tone         string   `json:"tone"`
	TargetLength int      `json:"target_length"`
	Count        int      `json:"count"`
}

type batchResponse struct {
	Articles    []domain.Article `json:"articles"`
	TopicsFound int              `json:"topics_found"`
	Created     int              `json:"created"`
	DurationMS  int64            `json:"duration_ms"`
}

type editRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type statusRequest struct {
	Status domain.Status `json:"status"`
}

type imageRequest struct {
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
	Prompt      string `json:"prompt"`
}

type statsResponse struct {
	Counts domain.StatusCounts `json:"counts"`
	Total  int                 `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.generator.Generate(r.Context(), domain.ProspectRequest{
		Keywords:  req.Keywords,
		TimeRange: req.TimeRange,
		Params: domain.GenerationParams{
			Tone:         domain.Tone(req.Tone),
			TargetLength: req.TargetLength,
			Count:        req.Count,
		},
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.respond(w, http.StatusCreated, batchResponse{
		Articles:    result.Articles,
		TopicsFound: result.Stats.TopicsFound,
		Created:     result.Stats.Created,
		DurationMS:  result.Stats.Duration.Milliseconds(),
	})
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	articles, err := h.editor.List(r.Context(), domain.Filter{
		Status: domain.Status(q.Get("status")),
		Query:  q.Get("q"),
		Date:   q.Get("date"),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, articles)
}

func (h *Handler) getArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.editor.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, article)
}

func (h *Handler) editArticle(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !h.decode(w, r, &req) {
		return
	}
	article, err := h.editor.Edit(r.Context(), r.PathValue("id"), req.Title, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, article)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	article, err := h.editor.SetStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, article)
}

func (h *Handler) replaceImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(data) == 0 {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "image_base64 must be non-empty base64"})
		return
	}

	article, err := h.editor.ReplaceImage(r.Context(), r.PathValue("id"), domain.GeneratedImage{
		Bytes:    data,
		MIMEType: req.MIMEType,
		Prompt:   req.Prompt,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, article)
}

func (h *Handler) regenerateImage(w http.ResponseWriter, r *http.Request) {
	article, err := h.editor.RegenerateImage(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, article)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.editor.Counts(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, statsResponse{Counts: counts, Total: counts.Total()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20)).Decode(dst); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrProvider):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.respond(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}
