package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration, read from the environment (with
// an optional .env file for local runs).
type Config struct {
	Port      string
	OpenAIKey string

	// FirebaseCredentials is the decoded service-account JSON. Empty
	// means no Firestore: the process falls back to the in-memory store
	// for local development.
	FirebaseCredentials []byte

	// ModelCandidates is the ordered probe list. Empty uses the
	// built-in default order.
	ModelCandidates []string
	ModelTimeout    time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using process environment")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
	}

	if encoded := os.Getenv("FIREBASE_CREDENTIALS"); encoded != "" {
		creds, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding FIREBASE_CREDENTIALS: %w", err)
		}
		cfg.FirebaseCredentials = creds
	}

	if raw := os.Getenv("MODEL_CANDIDATES"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.ModelCandidates = append(cfg.ModelCandidates, id)
			}
		}
	}

	seconds := getEnv("MODEL_TIMEOUT_SECONDS", "60")
	n, err := strconv.Atoi(seconds)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid MODEL_TIMEOUT_SECONDS %q", seconds)
	}
	cfg.ModelTimeout = time.Duration(n) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
