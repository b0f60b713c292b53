package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPauseMs is the silence inserted between chunk buffers.
const DefaultPauseMs = 300

// Assemble concatenates per-chunk buffers in order with pauseMs of silence
// between consecutive buffers. No silence is added before the first or after
// the last buffer. Buffers whose rate differs from targetRate are resampled,
// never mixed as-is; a targetRate of 0 adopts the first buffer's rate. A
// negative pauseMs selects DefaultPauseMs.
func Assemble(buffers []*Buffer, pauseMs, targetRate int) (*Buffer, error) {
	if len(buffers) == 0 {
		return nil, errors.New("no audio buffers to assemble")
	}
	if pauseMs < 0 {
		pauseMs = DefaultPauseMs
	}
	if targetRate <= 0 {
		targetRate = buffers[0].SampleRate
	}
	if targetRate <= 0 {
		return nil, errors.New("assemble: no usable sample rate")
	}

	parts := make([][]byte, len(buffers))
	total := 0
	for i, b := range buffers {
		if b == nil || len(b.PCM) == 0 {
			return nil, fmt.Errorf("assemble: buffer %d is empty", i)
		}
		pcm := b.PCM
		if b.SampleRate != targetRate {
			pcm = Resample(pcm, b.SampleRate, targetRate)
		}
		parts[i] = pcm
		total += len(pcm)
	}

	pause := Silence(pauseMs, targetRate)
	total += len(pause) * (len(buffers) - 1)

	out := make([]byte, 0, total)
	for i, pcm := range parts {
		if i > 0 {
			out = append(out, pause...)
		}
		out = append(out, pcm...)
	}

	return &Buffer{PCM: out, SampleRate: targetRate}, nil
}

// WriteFile writes b to path as a WAV file atomically: the bytes go to a
// temp file in the destination directory and are renamed into place only
// after a successful write, so a failed run never leaves a partial file.
func WriteFile(path string, b *Buffer) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}

	if err := Encode(tmp, b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp output: %w", err)
	}

	// CreateTemp files are 0600; the output is a normal artifact.
	_ = os.Chmod(tmp.Name(), 0o644)

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}
