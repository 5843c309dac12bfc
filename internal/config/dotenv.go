package config

import (
	"os"

	"github.com/joho/godotenv"
)

// dotenvFiles in priority order. godotenv never overwrites variables that
// are already set, so OS environment wins, then .env.local, then .env.
var dotenvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the .env files that exist and returns their names.
func LoadDotEnv() []string {
	var found []string
	for _, name := range dotenvFiles {
		if _, err := os.Stat(name); err == nil {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return nil
	}
	_ = godotenv.Load(found...)
	return found
}
