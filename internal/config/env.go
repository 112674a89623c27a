package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads variables from .env and .env.local in dir, when present.
// Existing process environment variables are never overwritten. It returns
// the files that were loaded.
func LoadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range []string{".env", ".env.local"} {
		p := name
		if dir != "" {
			p = dir + string(os.PathSeparator) + name
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, err
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
