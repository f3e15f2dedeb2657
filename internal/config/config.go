// Package config loads gateagent settings with precedence
// defaults -> config file -> dotenv/env -> CLI overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/modelgate/gateagent/internal/protocol"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Gateway Gateway `toml:"gateway"`
	MCP     MCP     `toml:"mcp"`
	Agent   Agent   `toml:"agent"`
	Server  Server  `toml:"server"`
}

// Gateway configures the chat-completions side.
type Gateway struct {
	URL         string  `toml:"url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
}

// MCP configures how the agent reaches its tool server.
type MCP struct {
	// Transport is "http" or "stdio".
	Transport string `toml:"transport"`
	Endpoint  string `toml:"endpoint"`
	AuthToken string `toml:"auth_token"`
	// Command is the tool server command line when Transport is "stdio".
	Command string `toml:"command"`
}

// Agent configures loop behavior.
type Agent struct {
	MaxModelCalls int    `toml:"max_model_calls"`
	SystemPrompt  string `toml:"system_prompt"`
	Verbose       bool   `toml:"verbose"`
}

// Server configures the gatetools server when run locally.
type Server struct {
	ListenAddr string `toml:"listen_addr"`
	MCPPath    string `toml:"mcp_path"`
	AuthToken  string `toml:"auth_token"`
}

// DefaultSystemPrompt instructs the model about progressive tool discovery.
const DefaultSystemPrompt = `You are a helpful assistant with access to tools.

CRITICAL: You start with ONLY the tool_search tool. You MUST use it to discover other tools!

Workflow:
1. FIRST use tool_search with a natural language query to find relevant tools
2. THEN call the discovered tools to complete the task
3. You cannot use a tool unless you have discovered it via tool_search first`

func Default() Config {
	return Config{
		Gateway: Gateway{
			URL:         protocol.DefaultGatewayURL,
			Model:       protocol.DefaultChatModel,
			Temperature: 0.7,
		},
		MCP: MCP{
			Transport: "http",
			Endpoint:  protocol.DefaultMCPEndpoint,
		},
		Agent: Agent{
			MaxModelCalls: 10,
			SystemPrompt:  DefaultSystemPrompt,
		},
		Server: Server{
			ListenAddr: protocol.DefaultListenAddr,
			MCPPath:    protocol.DefaultMCPPath,
		},
	}
}

// Overrides holds CLI flag values that take precedence over everything else.
// Only non-nil fields are applied.
type Overrides struct {
	GatewayURL    *string
	Model         *string
	MCPTransport  *string
	MCPEndpoint   *string
	MCPCommand    *string
	MaxModelCalls *int
	Verbose       *bool
}

// Load builds the configuration. path may be empty, in which case only the
// default location (./gateagent.toml) is tried and a missing file is fine.
// A missing file named explicitly is an error.
func Load(path string, overrides *Overrides) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = "gateagent.toml"
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// Developer convenience: .env.local wins over .env, both lose to real env.
	for _, dotenv := range []string{".env.local", ".env"} {
		if _, err := os.Stat(dotenv); err == nil {
			if err := godotenv.Load(dotenv); err != nil {
				return nil, fmt.Errorf("dotenv file %s: %w", dotenv, err)
			}
		}
	}
	applyEnv(&cfg)

	if overrides != nil {
		applyOverrides(&cfg, overrides)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MODELGATE_API_KEY")); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("MODELGATE_URL")); v != "" {
		cfg.Gateway.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("GATEAGENT_MODEL")); v != "" {
		cfg.Gateway.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("GATEAGENT_MCP_ENDPOINT")); v != "" {
		cfg.MCP.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("GATEAGENT_MCP_TOKEN")); v != "" {
		cfg.MCP.AuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv("GATEAGENT_MAX_MODEL_CALLS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Agent.MaxModelCalls = n
		}
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.GatewayURL != nil {
		cfg.Gateway.URL = *o.GatewayURL
	}
	if o.Model != nil {
		cfg.Gateway.Model = *o.Model
	}
	if o.MCPTransport != nil {
		cfg.MCP.Transport = *o.MCPTransport
	}
	if o.MCPEndpoint != nil {
		cfg.MCP.Endpoint = *o.MCPEndpoint
	}
	if o.MCPCommand != nil {
		cfg.MCP.Command = *o.MCPCommand
	}
	if o.MaxModelCalls != nil {
		cfg.Agent.MaxModelCalls = *o.MaxModelCalls
	}
	if o.Verbose != nil {
		cfg.Agent.Verbose = *o.Verbose
	}
}

func validate(cfg *Config) error {
	switch cfg.MCP.Transport {
	case "http":
		if strings.TrimSpace(cfg.MCP.Endpoint) == "" {
			return fmt.Errorf("config invalid: mcp.endpoint is required for http transport")
		}
	case "stdio":
		if strings.TrimSpace(cfg.MCP.Command) == "" {
			return fmt.Errorf("config invalid: mcp.command is required for stdio transport")
		}
	default:
		return fmt.Errorf("config invalid: mcp.transport must be http or stdio, got %q", cfg.MCP.Transport)
	}
	if cfg.Agent.MaxModelCalls <= 0 {
		return fmt.Errorf("config invalid: agent.max_model_calls must be positive")
	}
	if cfg.Gateway.Temperature < 0 || cfg.Gateway.Temperature > 2 {
		return fmt.Errorf("config invalid: gateway.temperature must be within [0, 2]")
	}
	return nil
}

// WriteExample writes a commented starter config, refusing to clobber an
// existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	example := `# gateagent configuration

[gateway]
url = "` + protocol.DefaultGatewayURL + `"
# api_key = ""          # or set MODELGATE_API_KEY
model = "` + protocol.DefaultChatModel + `"
temperature = 0.7

[mcp]
transport = "http"      # http or stdio
endpoint = "` + protocol.DefaultMCPEndpoint + `"
# auth_token = ""       # or set GATEAGENT_MCP_TOKEN
# command = "gatetools stdio"

[agent]
max_model_calls = 10

[server]
listen_addr = "` + protocol.DefaultListenAddr + `"
mcp_path = "` + protocol.DefaultMCPPath + `"
`
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && filepath.Dir(path) != "." {
		return err
	}
	return os.WriteFile(path, []byte(example), 0o644)
}
