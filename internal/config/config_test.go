package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modelgate/gateagent/internal/protocol"
)

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.URL != protocol.DefaultGatewayURL {
		t.Fatalf("gateway url = %q", cfg.Gateway.URL)
	}
	if cfg.MCP.Transport != "http" || cfg.MCP.Endpoint != protocol.DefaultMCPEndpoint {
		t.Fatalf("mcp defaults = %+v", cfg.MCP)
	}
	if cfg.Agent.MaxModelCalls != 10 {
		t.Fatalf("max model calls = %d", cfg.Agent.MaxModelCalls)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, "gateagent.toml"), `
[gateway]
model = "mistral/large"

[mcp]
transport = "stdio"
command = "gatetools stdio"

[agent]
max_model_calls = 3
`)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.Model != "mistral/large" {
		t.Fatalf("model = %q", cfg.Gateway.Model)
	}
	if cfg.MCP.Transport != "stdio" || cfg.MCP.Command != "gatetools stdio" {
		t.Fatalf("mcp = %+v", cfg.MCP)
	}
	if cfg.Agent.MaxModelCalls != 3 {
		t.Fatalf("max model calls = %d", cfg.Agent.MaxModelCalls)
	}
	// Untouched sections keep their defaults.
	if cfg.Gateway.URL != protocol.DefaultGatewayURL {
		t.Fatalf("gateway url = %q", cfg.Gateway.URL)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, "gateagent.toml"), `
[gateway]
api_key = "from-file"
`)
	t.Setenv("MODELGATE_API_KEY", "from-env")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.APIKey != "from-env" {
		t.Fatalf("api key = %q", cfg.Gateway.APIKey)
	}
}

func TestLoad_DotenvFillsMissingEnv(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, ".env"), "MODELGATE_API_KEY=from-dotenv\n")
	t.Setenv("MODELGATE_API_KEY", "")
	_ = os.Unsetenv("MODELGATE_API_KEY")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.APIKey != "from-dotenv" {
		t.Fatalf("api key = %q", cfg.Gateway.APIKey)
	}
}

func TestLoad_OverridesWinOverEverything(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GATEAGENT_MODEL", "from-env")

	modelOverride := "from-flag"
	cfg, err := Load("", &Overrides{Model: &modelOverride})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.Model != "from-flag" {
		t.Fatalf("model = %q", cfg.Gateway.Model)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	dir := chdirTemp(t)
	cases := []struct {
		name string
		toml string
	}{
		{"bad transport", "[mcp]\ntransport = \"carrier-pigeon\"\n"},
		{"stdio without command", "[mcp]\ntransport = \"stdio\"\n"},
		{"zero ceiling", "[agent]\nmax_model_calls = 0\n"},
		{"temperature out of range", "[gateway]\ntemperature = 3.5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writeFile(t, filepath.Join(dir, "gateagent.toml"), tc.toml)
			if _, err := Load("", nil); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	chdirTemp(t)
	if _, err := Load("nope.toml", nil); err == nil {
		t.Fatal("explicitly named missing file should be an error")
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(old)
	})
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
