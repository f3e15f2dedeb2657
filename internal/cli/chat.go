package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modelgate/gateagent/internal/agent"
	"github.com/modelgate/gateagent/internal/bridge"
	"github.com/modelgate/gateagent/internal/protocol"
	"github.com/modelgate/gateagent/internal/ui"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tool-augmented chat session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "disable the TUI even on a terminal")
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	if !chatPlain && isInteractive() {
		return runChatTUI(ctx, sess)
	}
	return runChatPlain(ctx, sess)
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runChatPlain(ctx context.Context, sess *session) error {
	for _, line := range sessionBanner(sess) {
		fmt.Println(line)
	}
	sess.loop.SetHooks(agent.Hooks{
		OnToolCall: func(name string, args map[string]any) {
			fmt.Println(ui.Dim("  [tool] ") + ui.ToolName(name) + ui.Dim(" "+compactArgs(args)))
		},
	})

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(ui.Prompt("you"))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		output, quit := handleCommand(ctx, sess, input)
		if quit {
			return nil
		}
		if output != "" {
			fmt.Println(output)
			continue
		}

		result, err := sess.loop.RunTurn(ctx, input)
		if err != nil {
			fmt.Println(ui.Errorf("%v", err))
			if hint := bridge.ActionableMessageFromError(err); hint != "" {
				fmt.Println(ui.Dim("Hint: " + hint))
			}
			continue
		}
		fmt.Println(result.FinalText)
		fmt.Println(ui.Dim(turnStats(result)))
	}
}

// handleCommand processes slash commands. It returns the text to display
// (empty when the input should go to the model) and whether to quit.
func handleCommand(ctx context.Context, sess *session, input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}
	switch {
	case input == "/quit" || input == "/exit":
		return "", true
	case input == "/help":
		return chatHelp(), false
	case input == "/clear":
		sess.conv.Reset()
		sess.tools.Clear()
		return ui.Dim("Conversation and discovered tools cleared."), false
	case input == "/context":
		return renderContext(sess.tools), false
	case strings.HasPrefix(input, "/search"):
		query := strings.TrimSpace(strings.TrimPrefix(input, "/search"))
		if query == "" {
			return ui.Error("usage: /search <query>"), false
		}
		return runManualSearch(ctx, sess, query), false
	default:
		return ui.Errorf("unknown command %s, try /help", input), false
	}
}

// runManualSearch lets the user drive tool_search by hand; discovered tools
// join the context the same way model-driven discovery does.
func runManualSearch(ctx context.Context, sess *session, query string) string {
	result, err := sess.mcp.CallTool(ctx, protocol.ToolNameSearch, map[string]any{"query": query})
	if err != nil {
		return ui.Errorf("%v", err)
	}
	if result.IsError {
		return ui.Error(result.Text())
	}

	var parsed struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal([]byte(result.Text()), &parsed); err != nil {
		return ui.Error("unexpected tool_search result shape")
	}
	added := sess.tools.MergeDiscovered(parsed.Tools)

	var b strings.Builder
	for _, entry := range parsed.Tools {
		name, _ := entry["name"].(string)
		desc, _ := entry["description"].(string)
		fmt.Fprintf(&b, "  %s %s\n", ui.ToolName(name), ui.Muted.Render(desc))
	}
	fmt.Fprintf(&b, "%s", ui.Dim(fmt.Sprintf("%d found, %d added to context (%d total)", len(parsed.Tools), added, sess.tools.Len())))
	return b.String()
}

func renderContext(tools *agent.ToolContext) string {
	var b strings.Builder
	b.WriteString(ui.Brand.Render("Tools in context:\n"))
	for _, d := range tools.CurrentDescriptors() {
		fmt.Fprintf(&b, "  %s %s\n", ui.ToolName(d.Name), ui.Muted.Render(d.Description))
	}
	b.WriteString(ui.Dim(fmt.Sprintf("%d total", tools.Len())))
	return b.String()
}

func chatHelp() string {
	var b strings.Builder
	b.WriteString(ui.Brand.Render("Commands:\n"))
	fmt.Fprintf(&b, "  %s  %s\n", ui.Cyan.Render("/help"), ui.Muted.Render("Show help"))
	fmt.Fprintf(&b, "  %s  %s\n", ui.Cyan.Render("/quit"), ui.Muted.Render("Exit chat"))
	fmt.Fprintf(&b, "  %s  %s\n", ui.Cyan.Render("/clear"), ui.Muted.Render("Clear conversation and discovered tools"))
	fmt.Fprintf(&b, "  %s  %s\n", ui.Cyan.Render("/context"), ui.Muted.Render("Show tools currently in context"))
	fmt.Fprintf(&b, "  %s  %s\n", ui.Cyan.Render("/search <query>"), ui.Muted.Render("Discover tools by hand"))
	b.WriteString(ui.Dim("  Anything else is sent to the model."))
	return b.String()
}

func sessionBanner(sess *session) []string {
	target := sess.cfg.MCP.Endpoint
	if sess.cfg.MCP.Transport == "stdio" {
		target = sess.cfg.MCP.Command
	}
	return []string{
		ui.Info("Connected to", fmt.Sprintf("%s %s (%s)", sess.server.Name, sess.server.Version, target)),
		ui.Info("Transport:", sess.cfg.MCP.Transport),
		ui.Info("Model:", sess.gateway.Model()),
		ui.Dim("Type /help for commands, /quit to exit."),
	}
}

func turnStats(r *agent.TurnResult) string {
	stats := fmt.Sprintf("[%d model calls, %d tool calls, %d tokens]", r.ModelCalls, r.ToolCalls, r.TotalTokens)
	if r.CeilingReached {
		stats += " (ceiling reached)"
	}
	return stats
}

func compactArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	s := string(raw)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
