// Package audio holds the PCM plumbing for the synthesis pipeline: buffers,
// WAV encode/decode, resampling and final assembly. The pipeline's working
// format is 16-bit little-endian mono PCM.
package audio

import "time"

// Buffer is a run of 16-bit little-endian mono PCM samples at a known rate.
type Buffer struct {
	PCM        []byte
	SampleRate int
}

// Samples returns the number of PCM samples in the buffer.
func (b *Buffer) Samples() int {
	return len(b.PCM) / 2
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Samples()) * time.Second / time.Duration(b.SampleRate)
}

// Silence returns ms milliseconds of silent PCM at the given sample rate.
func Silence(ms, sampleRate int) []byte {
	if ms <= 0 || sampleRate <= 0 {
		return nil
	}
	samples := sampleRate * ms / 1000
	return make([]byte, samples*2)
}
