package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelgate/gateagent/internal/bridge"
	"github.com/modelgate/gateagent/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var rpcErr *bridge.RPCError
	if errors.As(err, &rpcErr) {
		return cli.ExitConnectError
	}
	if strings.HasPrefix(err.Error(), "config invalid") {
		return cli.ExitConfigInvalid
	}
	return cli.ExitGenericError
}
