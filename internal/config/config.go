package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Engine names accepted by TTS_ENGINE / --engine.
const (
	EngineKokoro = "kokoro"
	EngineOpenAI = "openai"
	EngineGemini = "gemini"
	EnginePiper  = "piper"
)

// Device names accepted by TTS_DEVICE / --device.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
	DeviceMPS  = "mps"
)

// Config holds one run's settings. It is assembled once from the
// environment (plus CLI flag overrides) and passed down immutably: voice,
// language, speed and device apply to every chunk of the run.
type Config struct {
	// Engine selection
	Engine string

	// Voice settings (fixed for the whole run)
	Voice  string
	Lang   string
	Speed  float64
	Device string

	// Chunking and assembly
	ChunkChars int
	PauseMs    int
	SampleRate int

	// Pipeline
	Parallel int
	KeepTemp bool
	Verbose  bool

	// Kokoro (local Kokoro FastAPI server)
	KokoroURL string

	// OpenAI
	OpenAIKey   string
	OpenAIModel string

	// Gemini
	GeminiKey   string
	GeminiModel string

	// Piper (local subprocess)
	PiperPath  string
	PiperModel string

	// Serve mode
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)
}

// Load reads configuration from the environment. Callers validate once the
// config is final, after any command-line overrides are applied.
func Load() *Config {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Engine:             getEnv("TTS_ENGINE", EngineKokoro),
		Voice:              getEnv("TTS_VOICE", "af_heart"),
		Lang:               getEnv("TTS_LANG", "a"),
		Speed:              getEnvFloat("TTS_SPEED", 1.0),
		Device:             getEnv("TTS_DEVICE", DeviceAuto),
		ChunkChars:         getEnvInt("CHUNK_CHARS", 800),
		PauseMs:            getEnvInt("PAUSE_MS", 300),
		SampleRate:         getEnvInt("SAMPLE_RATE", 24000),
		Parallel:           getEnvInt("TTS_PARALLEL", 1),
		KeepTemp:           getEnvBool("KEEP_TEMP", false),
		KokoroURL:          getEnv("KOKORO_URL", "http://localhost:8880"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_TTS_MODEL", "tts-1"),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		PiperPath:          getEnv("PIPER_PATH", "piper"),
		PiperModel:         getEnv("PIPER_MODEL", ""),
		APIPort:            getEnv("API_PORT", "8080"),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}

	return cfg
}

// Validate checks the fields that every run depends on. Engine-specific
// requirements (API keys, model paths) are checked by the engine itself so
// a Kokoro run does not demand an OpenAI key.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineKokoro, EngineOpenAI, EngineGemini, EnginePiper:
	default:
		return fmt.Errorf("unknown TTS engine %q (want %s, %s, %s or %s)",
			c.Engine, EngineKokoro, EngineOpenAI, EngineGemini, EnginePiper)
	}

	switch c.Device {
	case DeviceAuto, DeviceCPU, DeviceCUDA, DeviceMPS:
	default:
		return fmt.Errorf("unknown device %q (want %s, %s, %s or %s)",
			c.Device, DeviceAuto, DeviceCPU, DeviceCUDA, DeviceMPS)
	}

	if c.ChunkChars < 1 {
		return fmt.Errorf("chunk budget must be positive, got %d", c.ChunkChars)
	}
	if c.PauseMs < 0 {
		return fmt.Errorf("pause duration cannot be negative, got %d", c.PauseMs)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %g", c.Speed)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallel)
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
