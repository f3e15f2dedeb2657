// Package cli implements the gateagent command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelgate/gateagent/internal/config"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitConnectError  = 3
)

type globalFlags struct {
	ConfigPath   string
	GatewayURL   string
	Model        string
	MCPTransport string
	MCPEndpoint  string
	MCPCommand   string
	MaxCalls     int
	Verbose      bool
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "gateagent",
	Short: "Tool-augmented chat agent for ModelGate",
	Long: "gateagent runs a chat loop against a ModelGate gateway, discovering MCP tools\n" +
		"progressively through tool_search and executing them on the model's behalf.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file path (default: ./gateagent.toml)")
	pf.StringVar(&flags.GatewayURL, "gateway", "", "ModelGate base URL")
	pf.StringVar(&flags.Model, "model", "", "chat model identifier")
	pf.StringVar(&flags.MCPTransport, "transport", "", "MCP transport: http or stdio")
	pf.StringVar(&flags.MCPEndpoint, "endpoint", "", "MCP HTTP endpoint URL")
	pf.StringVar(&flags.MCPCommand, "server-cmd", "", "tool server command line for stdio transport")
	pf.IntVar(&flags.MaxCalls, "max-model-calls", 0, "model call ceiling per turn")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "log MCP traffic")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command; exit code handling is in main.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves configuration with CLI flags layered on top.
func loadConfig() (*config.Config, error) {
	o := &config.Overrides{}
	if flags.GatewayURL != "" {
		o.GatewayURL = &flags.GatewayURL
	}
	if flags.Model != "" {
		o.Model = &flags.Model
	}
	if flags.MCPTransport != "" {
		o.MCPTransport = &flags.MCPTransport
	}
	if flags.MCPEndpoint != "" {
		o.MCPEndpoint = &flags.MCPEndpoint
	}
	if flags.MCPCommand != "" {
		o.MCPCommand = &flags.MCPCommand
	}
	if flags.MaxCalls > 0 {
		o.MaxModelCalls = &flags.MaxCalls
	}
	if flags.Verbose {
		o.Verbose = &flags.Verbose
	}
	return config.Load(flags.ConfigPath, o)
}
