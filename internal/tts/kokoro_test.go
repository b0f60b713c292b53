package tts

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobarin/readaloud/internal/audio"
	"github.com/bobarin/readaloud/internal/voices"
)

// testWAV builds a WAV file with the given number of constant-value samples.
func testWAV(samples, rate int, value int16) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(value))
	}
	return audio.Bytes(&audio.Buffer{PCM: pcm, SampleRate: rate})
}

func TestKokoroSynthesize(t *testing.T) {
	var gotReq kokoroRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != kokoroSpeechPath {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(testWAV(2400, 24000, 100))
	}))
	defer server.Close()

	k := NewKokoro(server.URL, "af_heart", 1.25, nil)
	buf, err := k.Synthesize(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if buf.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", buf.SampleRate)
	}
	if buf.Samples() != 2400 {
		t.Errorf("Samples() = %d, want 2400", buf.Samples())
	}

	if gotReq.Model != kokoroModel {
		t.Errorf("request model = %q, want %q", gotReq.Model, kokoroModel)
	}
	if gotReq.Input != "Hello world." {
		t.Errorf("request input = %q", gotReq.Input)
	}
	if gotReq.Voice != "af_heart" {
		t.Errorf("request voice = %q, want af_heart", gotReq.Voice)
	}
	if gotReq.ResponseFormat != "wav" {
		t.Errorf("request response_format = %q, want wav", gotReq.ResponseFormat)
	}
	if gotReq.Speed != 1.25 {
		t.Errorf("request speed = %v, want 1.25", gotReq.Speed)
	}
}

func TestKokoroSynthesizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"voice not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	k := NewKokoro(server.URL, "not_a_voice", 1.0, nil)
	_, err := k.Synthesize(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError: %v", err, err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", statusErr.Code)
	}
	if IsRetryable(err) {
		t.Error("a 400 response should not be retryable")
	}
}

func TestKokoroSynthesizeEmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testWAV(0, 24000, 0))
	}))
	defer server.Close()

	k := NewKokoro(server.URL, "af_heart", 1.0, nil)
	_, err := k.Synthesize(context.Background(), "hi")
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestKokoroVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != kokoroVoicesPath {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string][]string{
			"voices": {"af_heart", "am_adam"},
		})
	}))
	defer server.Close()

	k := NewKokoro(server.URL, "af_heart", 1.0, nil)
	list, err := k.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(list) != 2 || list[0] != "af_heart" || list[1] != "am_adam" {
		t.Errorf("Voices = %v", list)
	}

	if err := k.Check(context.Background()); err != nil {
		t.Errorf("Check with served voice: %v", err)
	}
}

func TestKokoroCheckUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	k := NewKokoro(server.URL, "af_heart", 1.0, nil)
	if err := k.Check(context.Background()); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestNewKokoroDefaults(t *testing.T) {
	k := NewKokoro("http://localhost:8880/", "", 0, nil)
	if k.voice != voices.Default {
		t.Errorf("voice = %q, want %q", k.voice, voices.Default)
	}
	if k.speed != 1.0 {
		t.Errorf("speed = %v, want 1.0", k.speed)
	}
	if k.baseURL != "http://localhost:8880" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", k.baseURL)
	}
}
