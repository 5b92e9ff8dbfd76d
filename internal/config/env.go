package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar overrides the --env flag when set.
const EnvFileVar = Prefix + "_ENV_FILE"

// EnvLoader loads a .env file named by the --env flag.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers an --env flag on fs and returns its loader.
func AddEnvFlag(fs *flag.FlagSet, defaultPath string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	if defaultPath == "" {
		defaultPath = ".env"
	}
	value := fs.String("env", defaultPath, "Path to the .env file")
	return &EnvLoader{value: value, defaultPath: defaultPath}
}

// Load applies the env file over the current environment and returns the path
// it loaded. A missing file is not an error and returns "".
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}
	path := strings.TrimSpace(os.Getenv(EnvFileVar))
	if path == "" && l.value != nil {
		path = strings.TrimSpace(*l.value)
	}
	if path == "" {
		path = l.defaultPath
	}
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("load env file %s: %w", path, err)
	}
	return path, nil
}
