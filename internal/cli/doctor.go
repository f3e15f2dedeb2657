package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/modelgate/gateagent/internal/bridge"
	"github.com/modelgate/gateagent/internal/gateway"
	"github.com/modelgate/gateagent/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the gateway and the tool server",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	failures := 0
	check := func(name string, err error, hint string) {
		if err == nil {
			fmt.Printf("%s %s\n", ui.Green.Render("ok"), name)
			return
		}
		failures++
		fmt.Printf("%s %s: %v\n", ui.Red.Render("fail"), name, err)
		if hint != "" {
			fmt.Println(ui.Dim("     " + hint))
		}
	}

	gw := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.Model, cfg.Gateway.Temperature)
	err = gw.Health(ctx)
	check("gateway health ("+cfg.Gateway.URL+")", err, hintFor(err))

	if models, err := gw.ListModels(ctx); err != nil {
		check("gateway model catalog", err, hintFor(err))
	} else {
		check("gateway model catalog", nil, "")
		found := false
		for _, m := range models {
			if m.ID == cfg.Gateway.Model {
				found = true
				break
			}
		}
		if !found {
			fmt.Println(ui.Yellow.Render("warn") + " configured model " + cfg.Gateway.Model + " not in catalog")
		}
	}

	transport, err := newTransport(cfg)
	if err != nil {
		check("tool server transport", err, "")
		return summarize(failures)
	}
	mcp := bridge.New(transport, false)
	defer func() {
		_ = mcp.Close()
	}()

	info, err := mcp.Initialize(ctx)
	check("MCP initialize", err, bridge.ActionableMessageFromError(err))
	if err == nil {
		fmt.Println(ui.Dim(fmt.Sprintf("     server: %s %s", info.Name, info.Version)))
		check("MCP ping", mcp.Ping(ctx), "")
		if tools, err := mcp.ListTools(ctx); err == nil {
			fmt.Println(ui.Dim(fmt.Sprintf("     %d tools available", len(tools))))
		}
	}

	return summarize(failures)
}

func hintFor(err error) string {
	if err == nil {
		return ""
	}
	return gateway.ActionableMessage(err)
}

func summarize(failures int) error {
	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	fmt.Println(ui.Green.Render("All checks passed."))
	return nil
}
