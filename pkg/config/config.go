// Package configx loads typed configuration from the environment, seeded
// from an optional env file.
package configx

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	flagOnce sync.Once
	envFile  string
)

// MustNew is New panicking on failure. Composition root only.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates T from environment variables via envconfig. Before
// processing, an env file is applied: the path named by the -env flag when
// set (a missing file is then an error), otherwise ./.env when present.
// Variables already set in the process environment always win over the file.
func New[T any](prefix string) (*T, error) {
	if err := seedEnvironment(envFileFlag()); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %s config: %w", prefix, err)
	}
	return &conf, nil
}

func envFileFlag() string {
	flagOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFile, "env", "", "path to env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFile)
}

// seedEnvironment exports the file's keys into the process environment. An
// explicit path must exist; the implicit ./.env is skipped when absent.
func seedEnvironment(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	info, err := os.Stat(path)
	switch {
	case err != nil && !explicit && errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("env file %s: %w", path, err)
	case info.IsDir():
		if explicit {
			return fmt.Errorf("env file %s: is a directory", path)
		}
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}

	for key, val := range v.AllSettings() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
