// Package httpapi exposes the chat backend over HTTP: system stats, the model
// list, generation and chat persistence, plus health and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	SystemStats(ctx context.Context) (types.SystemStats, error)
	ListModels() []string
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error)
	ListChats(ctx context.Context) ([]types.Chat, error)
	GetChat(ctx context.Context, id string) (types.Chat, error)
	SaveChat(ctx context.Context, chat types.Chat) error
	DeleteChat(ctx context.Context, id string) error
	Ready() bool
}

type api struct {
	svc Service
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	a := &api{svc: svc}
	r.Get("/system_stats", a.systemStats)
	r.Get("/models", a.models)
	r.Post("/generate", a.generate)
	r.Get("/get_chats", a.getChats)
	r.Get("/get_chat/{id}", a.getChat)
	r.Post("/save_chat", a.saveChat)
	r.Delete("/delete_chat/{id}", a.deleteChat)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no models"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Debug().Err(err).Msg("encode response")
	}
}

// decodeJSON enforces the content type and body limit, then decodes into dst.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", kindValidation)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large", kindValidation)
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", kindValidation)
		return false
	}
	return true
}

// pathID returns the decoded {id} URL parameter. chi routes on RawPath when
// it is set, leaving the parameter escaped; otherwise it is already decoded.
func pathID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if dec, err := url.PathUnescape(id); err == nil {
		return dec
	}
	return id
}

// systemStats godoc
// @Summary      Host and process resource usage
// @Description  CPU percentages are measured since the previous call; the first call reports 0.
// @Tags         system
// @Produce      json
// @Success      200  {object}  types.SystemStats
// @Failure      500  {object}  types.ErrorResponse
// @Router       /system_stats [get]
func (a *api) systemStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.SystemStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// models godoc
// @Summary      List available models
// @Tags         models
// @Produce      json
// @Success      200  {array}  string
// @Router       /models [get]
func (a *api) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.ListModels())
}

// generate godoc
// @Summary      Generate a reply
// @Description  Sends the prompt as a single user message to the inference backend.
// @Description  An omitted model uses the configured default.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        request  body      types.GenerateRequest  true  "Prompt and optional model"
// @Success      200      {object}  types.GenerateResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /generate [post]
func (a *api) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required", kindValidation)
		return
	}

	start := time.Now()
	lvl := requestLogLevel(r)
	if lvl >= LevelInfo {
		l := requestLogger(r)
		l.Info().Str("model", req.Model).Int("prompt_chars", len(req.Prompt)).Msg("generate start")
	}
	if lvl >= LevelDebug {
		l := requestLogger(r)
		l.Debug().Str("prompt", req.Prompt).Msg("generate prompt")
	}

	// Shutdown cancels in-flight generations as well as client disconnects.
	ctx, cancel := joinContexts(serverBaseCtx(), r.Context())
	defer cancel()
	resp, err := a.svc.Generate(ctx, req)
	if err != nil {
		if r.Context().Err() != nil {
			logEnd(r, lvl, 499, nil, func(e *zerolog.Event) { e.Dur("dur", time.Since(start)).Str("reason", "canceled") })
			return
		}
		if serverBaseCtx().Err() != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "server shutting down", kindUnavailable)
			logEnd(r, lvl, http.StatusServiceUnavailable, err, func(e *zerolog.Event) { e.Dur("dur", time.Since(start)).Str("reason", "shutdown") })
			return
		}
		status := writeServiceError(w, err)
		logEnd(r, lvl, status, err, func(e *zerolog.Event) { e.Dur("dur", time.Since(start)) })
		return
	}
	writeJSON(w, http.StatusOK, resp)
	logEnd(r, lvl, http.StatusOK, nil, func(e *zerolog.Event) {
		e.Dur("dur", time.Since(start)).Int("response_chars", len(resp.Response))
		if lvl >= LevelDebug {
			e.Str("response", resp.Response)
		}
	})
}

// getChats godoc
// @Summary      List saved chats
// @Description  Newest first: ids in descending order, numeric ids compared by value.
// @Tags         chats
// @Produce      json
// @Success      200  {array}   object
// @Failure      500  {object}  types.ErrorResponse
// @Router       /get_chats [get]
func (a *api) getChats(w http.ResponseWriter, r *http.Request) {
	chats, err := a.svc.ListChats(r.Context())
	if err != nil {
		status := writeServiceError(w, err)
		logEnd(r, requestLogLevel(r), status, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// getChat godoc
// @Summary      Get one chat
// @Tags         chats
// @Produce      json
// @Param        id   path      string  true  "Chat id"
// @Success      200  {object}  object
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /get_chat/{id} [get]
func (a *api) getChat(w http.ResponseWriter, r *http.Request) {
	chat, err := a.svc.GetChat(r.Context(), pathID(r))
	if err != nil {
		status := writeServiceError(w, err)
		logEnd(r, requestLogLevel(r), status, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// saveChat godoc
// @Summary      Create or replace a chat
// @Description  The record must carry an "id"; all other fields are stored as sent.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        chat  body      object  true  "Chat record"
// @Success      200   {object}  types.OKResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      415   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /save_chat [post]
func (a *api) saveChat(w http.ResponseWriter, r *http.Request) {
	var chat types.Chat
	if !decodeJSON(w, r, &chat) {
		return
	}
	lvl := requestLogLevel(r)
	if err := a.svc.SaveChat(r.Context(), chat); err != nil {
		status := writeServiceError(w, err)
		logEnd(r, lvl, status, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, types.OKResponse{OK: true})
	id, _ := chat.ID()
	logEnd(r, lvl, http.StatusOK, nil, func(e *zerolog.Event) { e.Str("chat_id", id) })
}

// deleteChat godoc
// @Summary      Delete a chat
// @Description  A trailing ".json" on the id is ignored.
// @Tags         chats
// @Produce      json
// @Param        id   path      string  true  "Chat id"
// @Success      200  {object}  types.OKResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /delete_chat/{id} [delete]
func (a *api) deleteChat(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	lvl := requestLogLevel(r)
	if err := a.svc.DeleteChat(r.Context(), id); err != nil {
		status := writeServiceError(w, err)
		logEnd(r, lvl, status, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, types.OKResponse{OK: true})
	logEnd(r, lvl, http.StatusOK, nil, func(e *zerolog.Event) { e.Str("chat_id", id) })
}
