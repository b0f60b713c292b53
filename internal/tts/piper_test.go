package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/bobarin/readaloud/internal/config"
)

func TestPiperArgs(t *testing.T) {
	p := NewPiper("piper", "/models/en_US-lessac-medium.onnx", config.DeviceCPU, 2.0, nil)

	got := p.args("/tmp/out.wav", config.DeviceCPU)
	want := []string{
		"--model", "/models/en_US-lessac-medium.onnx",
		"--output_file", "/tmp/out.wav",
		"--length_scale", "0.500",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}

	got = p.args("/tmp/out.wav", config.DeviceCUDA)
	if got[len(got)-1] != "--cuda" {
		t.Errorf("cuda args = %v, want trailing --cuda", got)
	}
}

func TestNewPiperFallsBackFromMPS(t *testing.T) {
	p := NewPiper("piper", "model.onnx", config.DeviceMPS, 1.0, nil)
	if p.currentDevice() != config.DeviceCPU {
		t.Errorf("device = %q, want cpu", p.currentDevice())
	}
}

func TestLooksLikeDeviceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"cuda init", errors.New("piper failed: exit status 1: CUDA error: no device found"), true},
		{"onnxruntime provider", errors.New("onnxruntime: failed to load CUDA execution provider"), true},
		{"bad model", errors.New("piper failed: exit status 1: failed to load model"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeDeviceError(tt.err); got != tt.want {
				t.Errorf("looksLikeDeviceError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPiperCheckMissingBinary(t *testing.T) {
	p := NewPiper("piper-binary-that-does-not-exist", "model.onnx", config.DeviceCPU, 1.0, nil)
	if err := p.Check(context.Background()); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

// TestPiperSynthesize runs the engine against a shell script that plays the
// part of the piper binary: it swallows stdin and copies a fixture WAV to
// the requested output file.
func TestPiperSynthesize(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake piper script requires a POSIX shell")
	}

	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	if err := os.WriteFile(fixture, testWAV(2205, 22050, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	script := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_file" ]; then out="$2"; shift; fi
  shift
done
cat > /dev/null
cp "` + fixture + `" "$out"
`
	bin := filepath.Join(dir, "fake-piper")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewPiper(bin, "model.onnx", config.DeviceCPU, 1.0, nil)
	buf, err := p.Synthesize(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if buf.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", buf.SampleRate)
	}
	if buf.Samples() != 2205 {
		t.Errorf("Samples() = %d, want 2205", buf.Samples())
	}
}
