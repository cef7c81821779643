// Package env exposes process environment variables merged with an optional
// dotenv file. Variables already set in the process take precedence.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/sbt-shop/contract-deployer/internal/logger"
	"github.com/spf13/viper"
)

const DefaultFile = ".env"

type Loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

// Load reads path as a dotenv file. A missing file is not an error.
func Load(path string) (*Loader, error) {
	l := &Loader{
		v:      viper.New(),
		logger: logger.Named("env"),
	}
	l.v.AutomaticEnv()

	if path == "" {
		return l, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.With("file", path).Debug("no dotenv file found, using process environment only")
			return l, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	l.v.SetConfigFile(path)
	l.v.SetConfigType("env")
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read dotenv file %s: %w", path, err)
	}

	l.logger.With("file", path).Debug("dotenv file loaded")

	return l, nil
}

// Lookup returns the value of name and whether it is set to a non-empty value.
func (l *Loader) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	value := strings.TrimSpace(l.v.GetString(name))

	return value, value != ""
}
