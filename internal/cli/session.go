package cli

import (
	"context"
	"fmt"

	"github.com/modelgate/gateagent/internal/agent"
	"github.com/modelgate/gateagent/internal/bridge"
	"github.com/modelgate/gateagent/internal/config"
	"github.com/modelgate/gateagent/internal/gateway"
)

// session bundles the wired-up pieces of one agent run.
type session struct {
	cfg     *config.Config
	gateway *gateway.Client
	mcp     *bridge.Client
	tools   *agent.ToolContext
	conv    *agent.Conversation
	loop    *agent.Loop
	server  bridge.ServerInfo
}

// newSession connects to the tool server, performs the MCP handshake and
// assembles the loop. The caller owns Close.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	mcp := bridge.New(transport, cfg.Agent.Verbose)

	info, err := mcp.Initialize(ctx)
	if err != nil {
		_ = mcp.Close()
		return nil, fmt.Errorf("MCP handshake failed: %w", err)
	}

	gw := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.APIKey, cfg.Gateway.Model, cfg.Gateway.Temperature)
	tools := agent.NewToolContext()
	conv := agent.NewConversation(cfg.Agent.SystemPrompt)
	invoker := agent.NewInvoker(mcp, tools)

	return &session{
		cfg:     cfg,
		gateway: gw,
		mcp:     mcp,
		tools:   tools,
		conv:    conv,
		loop:    agent.NewLoop(gw, invoker, tools, conv, cfg.Agent.MaxModelCalls),
		server:  info,
	}, nil
}

func newTransport(cfg *config.Config) (bridge.Transport, error) {
	switch cfg.MCP.Transport {
	case "stdio":
		return bridge.NewStdioTransport(cfg.MCP.Command, cfg.Agent.Verbose)
	default:
		return bridge.NewHTTPTransport(cfg.MCP.Endpoint, cfg.MCP.AuthToken), nil
	}
}

func (s *session) Close() error {
	return s.mcp.Close()
}
