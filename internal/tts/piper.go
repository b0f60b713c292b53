package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/config"
)

// ---------------------------------------------------------------------------
// Piper Text-to-Speech Engine
// Runs the piper binary as a subprocess: text on stdin, WAV to a temp file.
// Piper models speak at their own native rate (commonly 22050 Hz); the
// decoded WAV header tells us which, and the assembler resamples later.
// ---------------------------------------------------------------------------

// Piper synthesizes speech with a local piper binary and voice model.
type Piper struct {
	bin   string
	model string
	speed float64
	log   *zap.SugaredLogger

	mu     sync.Mutex
	device string // cpu or cuda; downgraded to cpu after a cuda failure
}

var (
	_ Engine  = (*Piper)(nil)
	_ Checker = (*Piper)(nil)
)

// NewPiper creates a Piper engine. The device is resolved here: auto picks
// the best available, and mps falls back to cpu because piper's onnxruntime
// has no Metal backend.
func NewPiper(bin, model, device string, speed float64, log *zap.SugaredLogger) *Piper {
	log = ensureLogger(log)
	if bin == "" {
		bin = "piper"
	}
	if speed <= 0 {
		speed = 1.0
	}
	device = ResolveDevice(device)
	if device == config.DeviceMPS {
		log.Warnf("piper does not support mps, falling back to cpu")
		device = config.DeviceCPU
	}
	return &Piper{
		bin:    bin,
		model:  model,
		speed:  speed,
		device: device,
		log:    log,
	}
}

func (p *Piper) Name() string { return "piper" }

// Synthesize runs piper once for the chunk. A failure on cuda is retried on
// cpu, and the engine stays on cpu for the rest of the run.
func (p *Piper) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	buf, err := p.run(ctx, text, p.currentDevice())
	if err != nil && p.currentDevice() == config.DeviceCUDA && looksLikeDeviceError(err) {
		p.log.Warnf("cuda synthesis failed, retrying on cpu: %v", err)
		p.setDevice(config.DeviceCPU)
		buf, err = p.run(ctx, text, config.DeviceCPU)
	}
	return buf, err
}

func (p *Piper) run(ctx context.Context, text, device string) (*audio.Buffer, error) {
	out, err := os.CreateTemp("", "piper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create piper output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := p.args(outPath, device)
	p.log.Debugf("running %s %s (textLen=%d)", p.bin, strings.Join(args, " "), len(text))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("piper failed: %w: %s", err, truncate(msg, 400))
		}
		return nil, fmt.Errorf("piper failed: %w", err)
	}

	wavData, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read piper output: %w", err)
	}

	buf, err := audio.Decode(wavData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode piper audio: %w", err)
	}
	if err := checkAudio("piper", buf); err != nil {
		return nil, err
	}

	p.log.Debugf("received %d samples at %d Hz", buf.Samples(), buf.SampleRate)
	return buf, nil
}

// args builds the piper command line. Piper's length_scale stretches audio,
// so it is the inverse of the requested speed.
func (p *Piper) args(outPath, device string) []string {
	args := []string{
		"--model", p.model,
		"--output_file", outPath,
		"--length_scale", fmt.Sprintf("%.3f", 1.0/p.speed),
	}
	if device == config.DeviceCUDA {
		args = append(args, "--cuda")
	}
	return args
}

func (p *Piper) currentDevice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device
}

func (p *Piper) setDevice(device string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.device = device
}

// looksLikeDeviceError reports whether a piper failure reads like a GPU
// problem rather than a model or input problem.
func looksLikeDeviceError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cuda") || strings.Contains(msg, "gpu") || strings.Contains(msg, "onnxruntime")
}

// Check verifies the binary and the voice model exist. A missing model config
// is only a warning; piper can sometimes run without it.
func (p *Piper) Check(ctx context.Context) error {
	if _, err := exec.LookPath(p.bin); err != nil {
		return fmt.Errorf("piper binary not found: %w", err)
	}
	if _, err := os.Stat(p.model); err != nil {
		return fmt.Errorf("piper model not found: %w", err)
	}
	if _, err := os.Stat(p.model + ".json"); err != nil {
		p.log.Warnf("piper model config %s.json not found", p.model)
	}
	return nil
}
