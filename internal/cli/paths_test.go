package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
)

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if !strings.HasPrefix(dir, home) {
		t.Errorf("configDir() = %q, should be under home %q", dir, home)
	}
	if !strings.HasSuffix(dir, appName) {
		t.Errorf("configDir() = %q, should end with %q", dir, appName)
	}
	if !strings.Contains(dir, ".config") {
		t.Errorf("configDir() = %q, should contain '.config'", dir)
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	if want := filepath.Join("/custom/config", appName); dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir, format, want string
	}{
		{"run/profile.json", "", "json", filepath.Join("run", "profile.sankey.json")},
		{"run/profile.json", "out", "svg", filepath.Join("out", "profile.sankey.svg")},
		{"profile", "", "dot", "profile.sankey.dot"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.dir, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.dir, tt.format, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); got != nil {
		t.Errorf("parseFormats(\"\") = %v, want nil", got)
	}
	got := parseFormats("json, svg")
	if len(got) != 2 || got[0] != "json" || got[1] != "svg" {
		t.Errorf("parseFormats() = %v, want [json svg]", got)
	}
}

// isolate runs the test in an empty working directory with no config
// environment so that .env and callflow.toml lookups see nothing.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(envConfig, "")
	t.Setenv(envThreshold, "")
	t.Setenv(envEdgeWeight, "")
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("threshold = 0.05\nedge_weight = \"mean\"\nformats = [\"svg\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if opts.Threshold != 0.05 || opts.EdgeWeight != "mean" || len(opts.Formats) != 1 {
		t.Errorf("loadConfig() = %+v", opts)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("threshold = 0.05\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envThreshold, "0.2")

	opts, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if opts.Threshold != 0.2 {
		t.Errorf("Threshold = %v, want 0.2 from the environment", opts.Threshold)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv(envEdgeWeight)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envEdgeWeight+"=mean\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if opts.EdgeWeight != "mean" {
		t.Errorf("EdgeWeight = %q, want mean from .env", opts.EdgeWeight)
	}
}

func TestLoadConfigMalformedDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CALLFLOW-THRESHOLD=0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := loadConfig("")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidConfig {
		t.Errorf("GetCode() = %v, want %v (err = %v)", got, errors.ErrCodeInvalidConfig, err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := isolate(t)
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("threshold = \"high\""), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		env  string
		code errors.Code
	}{
		{"missing explicit file", filepath.Join(dir, "nope.toml"), "", errors.ErrCodeFileNotFound},
		{"wrong type", bad, "", errors.ErrCodeInvalidConfig},
		{"bad env threshold", "", "lots", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envThreshold, tt.env)
			_, err := loadConfig(tt.path)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v (err = %v)", got, tt.code, err)
			}
		})
	}
}
