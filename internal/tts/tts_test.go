package tts

import (
	"strings"
	"testing"

	"github.com/bobarin/readaloud/internal/config"
)

func baseConfig(engine string) *config.Config {
	return &config.Config{
		Engine:    engine,
		Voice:     "af_heart",
		Speed:     1.0,
		Device:    config.DeviceCPU,
		KokoroURL: "http://localhost:8880",
	}
}

func TestFromConfig(t *testing.T) {
	e, err := FromConfig(baseConfig(config.EngineKokoro), nil)
	if err != nil {
		t.Fatalf("FromConfig(kokoro): %v", err)
	}
	if e.Name() != "kokoro" {
		t.Errorf("Name = %q, want kokoro", e.Name())
	}

	cfg := baseConfig(config.EngineOpenAI)
	cfg.OpenAIKey = "sk-test"
	e, err = FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig(openai): %v", err)
	}
	if e.Name() != "openai" {
		t.Errorf("Name = %q, want openai", e.Name())
	}

	cfg = baseConfig(config.EnginePiper)
	cfg.PiperModel = "voice.onnx"
	e, err = FromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig(piper): %v", err)
	}
	if e.Name() != "piper" {
		t.Errorf("Name = %q, want piper", e.Name())
	}
}

func TestFromConfigMissingRequirements(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"openai without key", baseConfig(config.EngineOpenAI), "OPENAI_API_KEY"},
		{"gemini without key", baseConfig(config.EngineGemini), "GEMINI_API_KEY"},
		{"piper without model", baseConfig(config.EnginePiper), "PIPER_MODEL"},
		{"unknown engine", baseConfig("espeak"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromConfig(tt.cfg, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCheckAudio(t *testing.T) {
	if err := checkAudio("x", nil); err == nil {
		t.Error("nil buffer accepted")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hello world", 5); got != "hello..." {
		t.Errorf("truncate long = %q", got)
	}
}
