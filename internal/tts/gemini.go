package tts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/bobarin/readaloud/internal/audio"
)

// ---------------------------------------------------------------------------
// Gemini Text-to-Speech Engine
// Uses the Google Gen AI SDK with the AUDIO response modality. The model
// returns inline PCM (16-bit mono, rate in the MIME type, normally 24 kHz).
// ---------------------------------------------------------------------------

const (
	geminiDefaultVoice = "Kore"
	geminiPCMRate      = 24000
)

// Gemini synthesizes speech through Google's Gemini TTS models.
type Gemini struct {
	apiKey string
	model  string
	voice  string
	log    *zap.SugaredLogger
}

var (
	_ Engine      = (*Gemini)(nil)
	_ Checker     = (*Gemini)(nil)
	_ VoiceLister = (*Gemini)(nil)
)

// NewGemini creates a Gemini TTS engine. Kokoro-style voice names are not
// valid here and fall back to the default voice. Gemini has no speed control;
// a non-default speed is ignored with a warning.
func NewGemini(apiKey, model, voice string, speed float64, log *zap.SugaredLogger) *Gemini {
	log = ensureLogger(log)
	if voice == "" {
		voice = geminiDefaultVoice
	} else if strings.Contains(voice, "_") {
		log.Warnf("voice %q is not a Gemini voice, using %q", voice, geminiDefaultVoice)
		voice = geminiDefaultVoice
	}
	if speed > 0 && speed != 1.0 {
		log.Warnf("gemini does not support speed control, ignoring speed=%.2f", speed)
	}
	return &Gemini{
		apiKey: apiKey,
		model:  model,
		voice:  voice,
		log:    log,
	}
}

func (g *Gemini) Name() string { return "gemini" }

// Synthesize converts one chunk of text into PCM audio.
func (g *Gemini) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}

	g.log.Debugf("synthesizing (model=%s, voice=%s, textLen=%d)", g.model, g.voice, len(text))

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini speech request failed: %w", err)
	}

	data, mimeType, err := inlineAudio(resp)
	if err != nil {
		return nil, err
	}

	buf := &audio.Buffer{PCM: data, SampleRate: pcmRateFromMIME(mimeType)}
	if err := checkAudio("gemini", buf); err != nil {
		return nil, err
	}

	g.log.Debugf("received %d samples at %d Hz", buf.Samples(), buf.SampleRate)
	return buf, nil
}

// inlineAudio extracts the first inline audio blob from a response.
func inlineAudio(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, "", fmt.Errorf("gemini returned no candidates")
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}
	return nil, "", fmt.Errorf("gemini response contains no audio data")
}

// pcmRateFromMIME parses the sample rate out of a MIME type like
// "audio/L16;codec=pcm;rate=24000". Falls back to the documented default.
func pcmRateFromMIME(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if after, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(after); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return geminiPCMRate
}

// Voices returns the prebuilt Gemini voice names.
func (g *Gemini) Voices(ctx context.Context) ([]string, error) {
	return []string{
		"Zephyr", "Puck", "Charon", "Kore", "Fenrir",
		"Leda", "Orus", "Aoede", "Callirrhoe", "Enceladus",
	}, nil
}

// Check verifies the client can be constructed; credentials themselves are
// only validated by the API on the first request.
func (g *Gemini) Check(ctx context.Context) error {
	if _, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}); err != nil {
		return fmt.Errorf("gemini client check failed: %w", err)
	}
	return nil
}
