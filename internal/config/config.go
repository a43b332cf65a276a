package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the endpoints and credential for one Compezze environment.
// Values come from an optional YAML file, overridden by environment
// variables. A missing token is not an error here: the transport stays
// dormant until a credential exists.
type Config struct {
	APIBaseURL   string `yaml:"api_base_url"`
	QuizWSURL    string `yaml:"quiz_ws_url"`
	SurveyWSURL  string `yaml:"survey_ws_url"`
	ContestWSURL string `yaml:"contest_ws_url"`
	Token        string `yaml:"token"`
}

// Load reads configuration from the given YAML file (empty path skips the
// file), after loading .env if present.
func Load(path string) (*Config, error) {
	// .env is optional; ignore absence
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:   "https://api.compezze.app",
		QuizWSURL:    "wss://api.compezze.app/ws/quiz",
		SurveyWSURL:  "wss://api.compezze.app/ws/survey",
		ContestWSURL: "wss://api.compezze.app/ws/contest",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg.APIBaseURL, "COMPEZZE_API_URL")
	applyEnv(&cfg.QuizWSURL, "COMPEZZE_QUIZ_WS_URL")
	applyEnv(&cfg.SurveyWSURL, "COMPEZZE_SURVEY_WS_URL")
	applyEnv(&cfg.ContestWSURL, "COMPEZZE_CONTEST_WS_URL")
	applyEnv(&cfg.Token, "COMPEZZE_TOKEN")

	return cfg, nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
