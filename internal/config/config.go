package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr     string
	MailTMBaseURL  string
	FallbackDomain string
	SanitizeHTML   bool
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8001"),
		MailTMBaseURL:  getEnv("MAILTM_BASE_URL", "https://api.mail.tm"),
		FallbackDomain: getEnv("FALLBACK_DOMAIN", "1secmail.com"),
		SanitizeHTML:   getEnvBool("SANITIZE_HTML", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
