// Package tts adapts external text-to-speech engines to the pipeline.
// Every engine takes one chunk of text and returns mono PCM; voice, language,
// speed and device are fixed at construction so a whole run synthesizes with
// one configuration. Engines keep no linguistic state between calls.
package tts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/config"
)

// Engine is the synthesis collaborator. Implementations must treat calls as
// independent: chunk N's audio may not depend on chunk N-1 having been seen.
type Engine interface {
	// Name identifies the engine in logs and errors.
	Name() string

	// Synthesize converts one chunk of text into audio. An empty result is
	// an error, never a silent skip.
	Synthesize(ctx context.Context, text string) (*audio.Buffer, error)
}

// Checker is implemented by engines that can probe their backing service
// before a run starts: server reachability, credentials, model files.
// Optional-support gaps surface as warnings inside Check, not errors.
type Checker interface {
	Check(ctx context.Context) error
}

// VoiceLister is implemented by engines that can enumerate voices at runtime.
type VoiceLister interface {
	Voices(ctx context.Context) ([]string, error)
}

// ErrEmptyAudio marks a synthesis call that produced no samples.
var ErrEmptyAudio = errors.New("engine returned empty audio")

// FromConfig builds the configured engine, wrapped with transient-failure
// retries. The logger may be nil.
func FromConfig(cfg *config.Config, log *zap.SugaredLogger) (Engine, error) {
	log = ensureLogger(log)

	var engine Engine
	switch cfg.Engine {
	case config.EngineKokoro:
		engine = NewKokoro(cfg.KokoroURL, cfg.Voice, cfg.Speed, log.Named("kokoro"))
	case config.EngineOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai engine")
		}
		engine = NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Voice, cfg.Speed, log.Named("openai"))
	case config.EngineGemini:
		if cfg.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini engine")
		}
		engine = NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.Voice, cfg.Speed, log.Named("gemini"))
	case config.EnginePiper:
		if cfg.PiperModel == "" {
			return nil, errors.New("PIPER_MODEL is required for the piper engine")
		}
		engine = NewPiper(cfg.PiperPath, cfg.PiperModel, cfg.Device, cfg.Speed, log.Named("piper"))
	default:
		return nil, fmt.Errorf("unknown TTS engine %q", cfg.Engine)
	}

	return WithRetry(engine, log.Named("retry")), nil
}

// checkAudio validates a buffer returned by an engine.
func checkAudio(engine string, b *audio.Buffer) error {
	if b == nil || len(b.PCM) == 0 {
		return fmt.Errorf("%s: %w", engine, ErrEmptyAudio)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%s returned audio without a sample rate", engine)
	}
	return nil
}

func ensureLogger(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// truncate limits a string for log and error output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
