package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/voices"
)

// ---------------------------------------------------------------------------
// Kokoro Text-to-Speech Engine
// Talks to a kokoro-fastapi server over its OpenAI-compatible REST API.
// The server returns complete WAV files; we decode them to raw PCM.
// ---------------------------------------------------------------------------

const (
	kokoroModel      = "kokoro"
	kokoroSpeechPath = "/v1/audio/speech"
	kokoroVoicesPath = "/v1/audio/voices"
)

// Kokoro synthesizes speech through a kokoro-fastapi server.
type Kokoro struct {
	baseURL string
	voice   string
	speed   float64
	client  *http.Client
	log     *zap.SugaredLogger
}

var (
	_ Engine      = (*Kokoro)(nil)
	_ Checker     = (*Kokoro)(nil)
	_ VoiceLister = (*Kokoro)(nil)
)

// NewKokoro creates a Kokoro engine for the server at baseURL.
func NewKokoro(baseURL, voice string, speed float64, log *zap.SugaredLogger) *Kokoro {
	if voice == "" {
		voice = voices.Default
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &Kokoro{
		baseURL: strings.TrimRight(baseURL, "/"),
		voice:   voice,
		speed:   speed,
		client:  &http.Client{Timeout: 120 * time.Second},
		log:     ensureLogger(log),
	}
}

func (k *Kokoro) Name() string { return "kokoro" }

type kokoroRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesize sends one chunk to the server and decodes the WAV response.
func (k *Kokoro) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	reqBody := kokoroRequest{
		Model:          kokoroModel,
		Input:          text,
		Voice:          k.voice,
		ResponseFormat: "wav",
		Speed:          k.speed,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kokoro request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", k.baseURL+kokoroSpeechPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create kokoro request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	k.log.Debugf("synthesizing (voice=%s, speed=%.2f, textLen=%d)", k.voice, k.speed, len(text))

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kokoro request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Engine: "kokoro", Code: resp.StatusCode, Body: string(body)}
	}

	wavData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read kokoro audio response: %w", err)
	}

	buf, err := audio.Decode(wavData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode kokoro audio: %w", err)
	}
	if err := checkAudio("kokoro", buf); err != nil {
		return nil, err
	}

	k.log.Debugf("received %d samples at %d Hz", buf.Samples(), buf.SampleRate)
	return buf, nil
}

// Voices asks the server which voices it serves.
func (k *Kokoro) Voices(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", k.baseURL+kokoroVoicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create kokoro voices request: %w", err)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kokoro voices request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Engine: "kokoro", Code: resp.StatusCode, Body: string(body)}
	}

	var parsed struct {
		Voices []string `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode kokoro voices response: %w", err)
	}
	return parsed.Voices, nil
}

// Check verifies the server is reachable and warns when the configured voice
// is not in its catalog. An unknown voice is not fatal: the server may carry
// custom voices it does not list.
func (k *Kokoro) Check(ctx context.Context) error {
	list, err := k.Voices(ctx)
	if err != nil {
		return fmt.Errorf("kokoro server unreachable at %s: %w", k.baseURL, err)
	}
	for _, v := range list {
		if v == k.voice {
			return nil
		}
	}
	if len(list) > 0 {
		k.log.Warnf("voice %q not reported by server at %s", k.voice, k.baseURL)
	}
	return nil
}
