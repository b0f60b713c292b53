package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/config"
	"github.com/bobarin/readaloud/internal/document"
	"github.com/bobarin/readaloud/internal/pipeline"
	"github.com/bobarin/readaloud/internal/tts"
	"github.com/bobarin/readaloud/internal/voices"
)

// Handler serves the speech endpoints. The default engine is built once at
// startup; a request that overrides voice or speed gets a fresh engine with
// the same base configuration, so one request still speaks with one voice.
type Handler struct {
	engine tts.Engine
	cfg    *config.Config
	log    *zap.SugaredLogger
}

func NewHandler(engine tts.Engine, cfg *config.Config, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{engine: engine, cfg: cfg, log: log}
}

// SpeechRequest is the body of POST /v1/speech.
type SpeechRequest struct {
	Input    string  `json:"input"`
	Markdown bool    `json:"markdown,omitempty"`
	Voice    string  `json:"voice,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	PauseMs  *int    `json:"pause_ms,omitempty"`
}

// VoicesResponse is the body of GET /v1/voices.
type VoicesResponse struct {
	Engine  string   `json:"engine"`
	Default string   `json:"default"`
	Voices  []string `json:"voices"`
}

// Speech handles POST /v1/speech: synthesize the input text and return the
// assembled WAV file.
func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	var req SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		respondError(w, http.StatusBadRequest, "Input text is required")
		return
	}

	cfg := *h.cfg
	if req.PauseMs != nil && *req.PauseMs >= 0 {
		cfg.PauseMs = *req.PauseMs
	}

	engine := h.engine
	if req.Voice != "" || (req.Speed > 0 && req.Speed != cfg.Speed) {
		if req.Voice != "" {
			cfg.Voice = req.Voice
		}
		if req.Speed > 0 {
			cfg.Speed = req.Speed
		}
		var err error
		engine, err = tts.FromConfig(&cfg, h.log)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	doc := &document.Document{Text: req.Input, Markdown: req.Markdown, Source: "api"}
	buf, err := pipeline.New(engine, &cfg, h.log).Synthesize(r.Context(), doc)
	if err != nil {
		h.respondSynthesisError(w, err)
		return
	}

	wav := audio.Bytes(buf)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

// respondSynthesisError maps pipeline failures to HTTP statuses: bad input is
// the caller's fault, an engine failure is an upstream problem.
func (h *Handler) respondSynthesisError(w http.ResponseWriter, err error) {
	var synthErr *pipeline.SynthesisError
	switch {
	case errors.Is(err, pipeline.ErrEmptyDocument):
		respondError(w, http.StatusBadRequest, "Document contains no speakable text")
	case errors.As(err, &synthErr):
		h.log.Errorf("synthesis failed: %v", err)
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Errorf("synthesis failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Synthesis failed")
	}
}

// Voices handles GET /v1/voices. It prefers the engine's live listing and
// falls back to the built-in catalog.
func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	var list []string
	if vl, ok := h.engine.(tts.VoiceLister); ok {
		l, err := vl.Voices(r.Context())
		if err != nil {
			h.log.Warnf("voice listing failed: %v", err)
		} else {
			list = l
		}
	}
	if len(list) == 0 {
		list = voices.All()
	}

	def := h.cfg.Voice
	if def == "" {
		def = voices.Default
	}
	respondJSON(w, http.StatusOK, VoicesResponse{
		Engine:  h.engine.Name(),
		Default: def,
		Voices:  list,
	})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"engine": h.engine.Name(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
