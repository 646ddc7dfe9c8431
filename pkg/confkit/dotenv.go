package confkit

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file once per process. ENV_FILE names an
// explicit file; otherwise every .env from this package up to the module
// root is tried, then ./.env. NO_DOTENV=1 disables loading and
// DOTENV_OVERLOAD=1 lets the file override the process environment.
func LoadDotenvOnce() {
	dotenvOnce.Do(func() {
		loadDotenv(os.Getenv)
	})
}

func loadDotenv(getenv func(string) string) {
	if getenv("NO_DOTENV") == "1" {
		return
	}

	load := godotenv.Load
	if getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		walkUp(filepath.Dir(file), func(dir string) bool {
			if p := filepath.Join(dir, ".env"); fileExists(p) {
				_ = load(p)
			}
			return isModuleRoot(dir)
		})
		return
	}

	_ = load(".env")
}
