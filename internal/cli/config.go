package cli

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/pipeline"
)

// Environment variables read by loadConfig.
const (
	envConfig     = "CALLFLOW_CONFIG"
	envThreshold  = "CALLFLOW_THRESHOLD"
	envEdgeWeight = "CALLFLOW_EDGE_WEIGHT"
)

// configFileName is the config file looked up in the working directory and
// in the user config directory.
const configFileName = appName + ".toml"

// loadConfig builds pipeline options from, in increasing precedence, the
// config file and the environment. A .env file in the working directory is
// loaded first if present; a malformed one is an INVALID_CONFIG error.
//
// An explicit path (from --config or CALLFLOW_CONFIG) must exist; the
// default locations are optional.
func loadConfig(path string) (pipeline.Options, error) {
	var opts pipeline.Options
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, ".env")
	}

	explicit := path != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv(envConfig))
		explicit = path != ""
	}
	if !explicit {
		path = findConfig()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &opts); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				if explicit {
					return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
				}
			} else {
				return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
			}
		}
	}

	if raw := strings.TrimSpace(os.Getenv(envThreshold)); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s=%q", envThreshold, raw)
		}
		opts.Threshold = v
	}
	if raw := strings.TrimSpace(os.Getenv(envEdgeWeight)); raw != "" {
		opts.EdgeWeight = raw
	}
	return opts, nil
}

// findConfig returns the first existing default config file, or "".
func findConfig() string {
	candidates := []string{configFileName}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, configFileName))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// configDir returns the config directory using XDG standard (~/.config/callflow/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
