package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/modelgate/gateagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter gateagent.toml",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := flags.ConfigPath
		if path == "" {
			path = "gateagent.toml"
		}
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printable := *cfg
		if printable.Gateway.APIKey != "" {
			printable.Gateway.APIKey = "***"
		}
		if printable.MCP.AuthToken != "" {
			printable.MCP.AuthToken = "***"
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(printable)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPrintCmd)
}
