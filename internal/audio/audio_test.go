package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// tone builds a mono buffer where every sample has the same value, which
// makes region boundaries easy to assert on after assembly.
func tone(value int16, samples, rate int) *Buffer {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(value))
	}
	return &Buffer{PCM: pcm, SampleRate: rate}
}

func sampleAt(pcm []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(pcm[i*2:]))
}

func TestSilence(t *testing.T) {
	pcm := Silence(300, 24000)
	if len(pcm) != 7200*2 {
		t.Errorf("300ms at 24kHz should be 7200 samples, got %d", len(pcm)/2)
	}
	for i, b := range pcm {
		if b != 0 {
			t.Fatalf("silence has non-zero byte at %d", i)
		}
	}
	if Silence(0, 24000) != nil {
		t.Error("zero-length silence should be nil")
	}
}

func TestBufferDuration(t *testing.T) {
	b := tone(100, 24000, 24000)
	if d := b.Duration(); d != time.Second {
		t.Errorf("24000 samples at 24kHz = %v, want 1s", d)
	}
	b = tone(100, 12000, 24000)
	if d := b.Duration(); d != 500*time.Millisecond {
		t.Errorf("12000 samples at 24kHz = %v, want 500ms", d)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := tone(1234, 480, 24000)

	wav := Bytes(in)
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("encoded bytes are not a RIFF/WAVE file")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("header sample rate = %d, want 24000", rate)
	}
	if byteRate := binary.LittleEndian.Uint32(wav[28:32]); byteRate != 48000 {
		t.Errorf("header byte rate = %d, want 48000", byteRate)
	}

	out, err := Decode(wav)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.SampleRate != in.SampleRate {
		t.Errorf("decoded rate = %d, want %d", out.SampleRate, in.SampleRate)
	}
	if !bytes.Equal(out.PCM, in.PCM) {
		t.Error("decoded PCM differs from encoded PCM")
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	in := tone(-42, 100, 22050)
	wav := Bytes(in)

	// Splice a LIST chunk between fmt and data, the way some TTS servers do.
	list := make([]byte, 8+4)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 4)
	copy(list[8:12], "INFO")

	spliced := append([]byte{}, wav[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, wav[36:]...)

	out, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode with LIST chunk: %v", err)
	}
	if out.SampleRate != 22050 || !bytes.Equal(out.PCM, in.PCM) {
		t.Error("decode through extra chunk lost data")
	}
}

func TestDecodeStereoDownmix(t *testing.T) {
	// One stereo frame: L=100, R=300 averages to 200.
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:], 100)
	binary.LittleEndian.PutUint16(pcm[2:], 300)

	wav := make([]byte, 0, 44+4)
	wav = append(wav, wavHeader(len(pcm), 16000)...)
	wav = append(wav, pcm...)
	// Patch channel count and block align for stereo.
	binary.LittleEndian.PutUint16(wav[22:24], 2)
	binary.LittleEndian.PutUint16(wav[32:34], 4)
	binary.LittleEndian.PutUint32(wav[28:32], 16000*4)

	out, err := Decode(wav)
	if err != nil {
		t.Fatalf("Decode stereo: %v", err)
	}
	if out.Samples() != 1 || sampleAt(out.PCM, 0) != 200 {
		t.Errorf("downmix = %d samples, first %d; want 1 sample of 200", out.Samples(), sampleAt(out.PCM, 0))
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := Decode([]byte("not audio")); err == nil {
		t.Error("expected error for garbage input")
	}

	in := tone(1, 10, 8000)
	wav := Bytes(in)
	binary.LittleEndian.PutUint16(wav[20:22], 3) // IEEE float
	if _, err := Decode(wav); err == nil {
		t.Error("expected error for non-PCM format")
	}
}

func TestStereoToMono(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(-200)))
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(400)))
	binary.LittleEndian.PutUint16(pcm[4:], 1000)
	binary.LittleEndian.PutUint16(pcm[6:], 2000)

	out := StereoToMono(pcm)
	if len(out) != 4 {
		t.Fatalf("expected 2 mono samples, got %d", len(out)/2)
	}
	if got := sampleAt(out, 0); got != 100 {
		t.Errorf("frame 0 = %d, want 100", got)
	}
	if got := sampleAt(out, 1); got != 1500 {
		t.Errorf("frame 1 = %d, want 1500", got)
	}
}

func TestResample(t *testing.T) {
	in := tone(500, 1000, 8000)

	same := Resample(in.PCM, 8000, 8000)
	if !bytes.Equal(same, in.PCM) {
		t.Error("equal rates should pass samples through unchanged")
	}

	up := Resample(in.PCM, 8000, 16000)
	if len(up)/2 != 2000 {
		t.Errorf("8k to 16k of 1000 samples = %d samples, want 2000", len(up)/2)
	}
	// A constant signal stays constant under linear interpolation.
	for i := 0; i < len(up)/2; i++ {
		if sampleAt(up, i) != 500 {
			t.Fatalf("sample %d = %d after upsampling, want 500", i, sampleAt(up, i))
		}
	}

	down := Resample(in.PCM, 22050, 24000)
	wantSamples := int(int64(1000) * 24000 / 22050)
	if len(down)/2 != wantSamples {
		t.Errorf("22050 to 24000 of 1000 samples = %d samples, want %d", len(down)/2, wantSamples)
	}
}

func TestAssembleDurationAndOrder(t *testing.T) {
	const rate = 24000
	half := rate / 2 // 0.5s per buffer

	buffers := []*Buffer{
		tone(10, half, rate),
		tone(20, half, rate),
		tone(30, half, rate),
	}

	out, err := Assemble(buffers, 300, rate)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	pause := rate * 300 / 1000
	wantSamples := 3*half + 2*pause
	if out.Samples() != wantSamples {
		t.Fatalf("assembled %d samples, want %d", out.Samples(), wantSamples)
	}

	// Region spot checks: buffer starts and a mid-pause sample.
	checks := []struct {
		idx  int
		want int16
	}{
		{0, 10},
		{half + pause/2, 0},
		{half + pause, 20},
		{half + pause + half - 1, 20},
		{2*half + pause + pause/2, 0},
		{2 * (half + pause), 30},
		{wantSamples - 1, 30},
	}
	for _, c := range checks {
		if got := sampleAt(out.PCM, c.idx); got != c.want {
			t.Errorf("sample %d = %d, want %d", c.idx, got, c.want)
		}
	}
}

func TestAssembleSingleBuffer(t *testing.T) {
	in := tone(7, 100, 24000)
	out, err := Assemble([]*Buffer{in}, 300, 24000)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !bytes.Equal(out.PCM, in.PCM) {
		t.Error("a single buffer should pass through without added silence")
	}
}

func TestAssembleNoPause(t *testing.T) {
	out, err := Assemble([]*Buffer{tone(1, 10, 8000), tone(2, 10, 8000)}, 0, 8000)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if out.Samples() != 20 {
		t.Errorf("pause 0 should concatenate directly, got %d samples", out.Samples())
	}
}

func TestAssembleResamplesMismatchedRates(t *testing.T) {
	out, err := Assemble([]*Buffer{
		tone(5, 12000, 24000),
		tone(5, 6000, 12000), // also 0.5s, at half the rate
	}, 0, 24000)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if out.SampleRate != 24000 {
		t.Errorf("output rate = %d, want 24000", out.SampleRate)
	}
	if out.Samples() != 24000 {
		t.Errorf("two half-second buffers = %d samples at 24kHz, want 24000", out.Samples())
	}
}

func TestAssembleErrors(t *testing.T) {
	if _, err := Assemble(nil, 300, 24000); err == nil {
		t.Error("expected error for zero buffers")
	}

	_, err := Assemble([]*Buffer{tone(1, 10, 8000), {SampleRate: 8000}}, 300, 8000)
	if err == nil {
		t.Fatal("expected error for an empty buffer")
	}
	if !strings.Contains(err.Error(), "buffer 1") {
		t.Errorf("error should name the offending buffer index, got %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	if err := WriteFile(path, tone(9, 240, 24000)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data[0:4]) != "RIFF" {
		t.Error("written file is not a WAV")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.wav")
	if err := WriteFile(path, tone(9, 240, 24000)); err == nil {
		t.Fatal("expected error for missing destination directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no output file should exist after a failed write")
	}
}
