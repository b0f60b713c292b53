package tts

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
)

// ---------------------------------------------------------------------------
// OpenAI Text-to-Speech Engine
// Uses the OpenAI speech endpoint with the raw PCM response format, which is
// 16-bit mono at 24 kHz. No container to parse, the bytes are the samples.
// ---------------------------------------------------------------------------

const (
	openaiDefaultVoice = "alloy"
	openaiPCMRate      = 24000
)

// OpenAI synthesizes speech through the OpenAI API.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
	speed  float64
	log    *zap.SugaredLogger
}

var (
	_ Engine      = (*OpenAI)(nil)
	_ Checker     = (*OpenAI)(nil)
	_ VoiceLister = (*OpenAI)(nil)
)

// NewOpenAI creates an OpenAI TTS engine. Kokoro-style voice names are not
// valid here and fall back to the default voice.
func NewOpenAI(apiKey, model, voice string, speed float64, log *zap.SugaredLogger) *OpenAI {
	log = ensureLogger(log)
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = openaiDefaultVoice
	} else if strings.Contains(voice, "_") {
		log.Warnf("voice %q is not an OpenAI voice, using %q", voice, openaiDefaultVoice)
		voice = openaiDefaultVoice
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		voice:  voice,
		speed:  speed,
		log:    log,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Synthesize converts one chunk of text into PCM audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	o.log.Debugf("synthesizing (model=%s, voice=%s, speed=%.2f, textLen=%d)", o.model, o.voice, o.speed, len(text))

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          o.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read openai audio response: %w", err)
	}

	buf := &audio.Buffer{PCM: pcm, SampleRate: openaiPCMRate}
	if err := checkAudio("openai", buf); err != nil {
		return nil, err
	}

	o.log.Debugf("received %d samples at %d Hz", buf.Samples(), buf.SampleRate)
	return buf, nil
}

// Voices returns the fixed OpenAI voice set; the API has no listing endpoint.
func (o *OpenAI) Voices(ctx context.Context) ([]string, error) {
	return []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}, nil
}

// Check verifies the API key by listing models.
func (o *OpenAI) Check(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai api check failed: %w", err)
	}
	return nil
}
