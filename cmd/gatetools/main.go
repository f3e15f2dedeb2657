// gatetools is the local MCP tool server: a built-in tool set exposed over
// stdio (one JSON-RPC envelope per line) or HTTP.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modelgate/gateagent/internal/protocol"
	"github.com/modelgate/gateagent/internal/toolserver"
)

var (
	listenAddr string
	mcpPath    string
	authToken  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "gatetools",
	Short:         "Local MCP tool server for gateagent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdin/stdout, one request per line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, db, err := newServer()
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()

		out := bufio.NewWriter(os.Stdout)
		defer func() {
			_ = out.Flush()
		}()
		return server.ServeStdio(cmd.Context(), os.Stdin, out)
	},
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve MCP over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, db, err := newServer()
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		listener, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return fmt.Errorf("cannot listen on %s: %w", listenAddr, err)
		}
		fmt.Fprintf(os.Stderr, "gatetools listening on http://%s%s\n", listener.Addr(), mcpPath)
		return server.Serve(ctx, listener, toolserver.HTTPOptions{
			MCPPath:   mcpPath,
			AuthToken: authToken,
		})
	},
}

func newServer() (*toolserver.Server, interface{ Close() error }, error) {
	registry, db, err := toolserver.DefaultRegistry()
	if err != nil {
		return nil, nil, err
	}
	return toolserver.NewServer(registry, verbose), db, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
	httpCmd.Flags().StringVar(&listenAddr, "listen", protocol.DefaultListenAddr, "listen address")
	httpCmd.Flags().StringVar(&mcpPath, "path", protocol.DefaultMCPPath, "MCP endpoint path")
	httpCmd.Flags().StringVar(&authToken, "token", os.Getenv("GATETOOLS_TOKEN"), "bearer token required on the MCP path")
	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(httpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
