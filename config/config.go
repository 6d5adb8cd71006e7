// Package config loads the process-wide configuration. Everything is read
// once at startup from the environment; services receive a value copy and
// never reload.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config structure
type Config struct {
	Addr              string // listen address, default ":8080"
	LLMAPIKey         string // mandatory, startup aborts without it
	LLMBaseURL        string // OpenAI-compatible endpoint, empty means api.openai.com
	LLMModel          string
	LLMMaxTokens      int
	ImageHost         string // image generator host, empty disables image enrichment
	ImageToken        string // optional image provider token
	GoogleCredentials string // service-account JSON path, empty disables cloud rendering
	AdminKey          string // gates the admin status surface, empty disables it
	Debug             bool
}

// Load reads configuration from the environment. The LLM API key is the
// only hard requirement; optional keys disable the capability they gate.
func Load() (Config, error) {
	cfg := Config{
		Addr:              getenv("SMARTSLIDE_ADDR", ":8080"),
		LLMAPIKey:         os.Getenv("SMARTSLIDE_LLM_API_KEY"),
		LLMBaseURL:        os.Getenv("SMARTSLIDE_LLM_BASE_URL"),
		LLMModel:          getenv("SMARTSLIDE_LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:      getenvInt("SMARTSLIDE_LLM_MAX_TOKENS", 4096),
		ImageHost:         getenv("SMARTSLIDE_IMAGE_HOST", "image.pollinations.ai"),
		ImageToken:        os.Getenv("SMARTSLIDE_IMAGE_TOKEN"),
		GoogleCredentials: os.Getenv("SMARTSLIDE_GOOGLE_CREDENTIALS"),
		AdminKey:          os.Getenv("SMARTSLIDE_ADMIN_KEY"),
		Debug:             getenvBool("SMARTSLIDE_DEBUG"),
	}

	if cfg.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("SMARTSLIDE_LLM_API_KEY is not set")
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 4096
	}
	return cfg, nil
}

// CloudEnabled reports whether Google Slides rendering is configured.
func (c Config) CloudEnabled() bool {
	return c.GoogleCredentials != ""
}

// ImagesEnabled reports whether image enrichment is configured.
func (c Config) ImagesEnabled() bool {
	return c.ImageHost != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
