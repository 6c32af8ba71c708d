package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Check CheckConfig
	Ai    AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

// CheckConfig holds the scheduling knobs of the check pipeline.
type CheckConfig struct {
	// TypingPause is the debounce delay after the last input event.
	TypingPause time.Duration
	// SettleDelay is the short delay before a focus/click-triggered check.
	SettleDelay time.Duration
	// MinTextLength is the minimum trimmed length worth checking.
	MinTextLength int
	// HistoryCapacity bounds the coordinator's suggestion history.
	HistoryCapacity int
	// DisplayCapacity bounds the list a viewer renders.
	DisplayCapacity int
	// MaxRetries is a recognized knob for callers of the AI client.
	// The coordinator's call path never consults it; there is no
	// automatic retry.
	MaxRetries int
}

type AIConfig struct {
	OllamaBaseURL  string
	OllamaModel    string
	RequestTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3232"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/companion.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Check: CheckConfig{
			TypingPause:     getEnvAsDuration("CHECK_TYPING_PAUSE_MS", 2000),
			SettleDelay:     getEnvAsDuration("CHECK_SETTLE_DELAY_MS", 250),
			MinTextLength:   getEnvAsInt("CHECK_MIN_TEXT_LENGTH", 25),
			HistoryCapacity: 50,
			DisplayCapacity: 10,
			MaxRetries:      getEnvAsInt("CHECK_MAX_RETRIES", 0),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:    getEnv("OLLAMA_MODEL", "llama3"),
			RequestTimeout: getEnvAsDuration("OLLAMA_REQUEST_TIMEOUT_MS", 30000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallbackMs)) * time.Millisecond
}
