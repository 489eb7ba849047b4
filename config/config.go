package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config trả về giá trị biến môi trường theo key, ưu tiên file .env
func Config(key string) string {
	godotenv.Load(".env")
	return os.Getenv(key)
}

func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}
