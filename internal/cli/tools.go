package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modelgate/gateagent/internal/protocol"
	"github.com/modelgate/gateagent/internal/ui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool server",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool the server exposes",
	RunE:  runToolsList,
}

var toolsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a tool_search query and show scored matches",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runToolsSearch,
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsSearchCmd)
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	descriptors, err := sess.mcp.ListTools(cmd.Context())
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		fmt.Printf("%s\n    %s\n", ui.ToolName(d.Name), ui.Muted.Render(d.Description))
	}
	fmt.Println(ui.Dim(fmt.Sprintf("%d tools", len(descriptors))))
	return nil
}

func runToolsSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	query := strings.Join(args, " ")
	result, err := sess.mcp.CallTool(cmd.Context(), protocol.ToolNameSearch, map[string]any{"query": query})
	if err != nil {
		return err
	}
	if result.IsError {
		return fmt.Errorf("tool_search failed: %s", result.Text())
	}

	var parsed struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal([]byte(result.Text()), &parsed); err != nil {
		return fmt.Errorf("unexpected tool_search result: %w", err)
	}
	if len(parsed.Tools) == 0 {
		fmt.Println(ui.Dim("(no matches)"))
		return nil
	}
	for _, entry := range parsed.Tools {
		name, _ := entry["name"].(string)
		desc, _ := entry["description"].(string)
		category, _ := entry["_category"].(string)
		fmt.Printf("%s score=%s %s\n    %s\n",
			ui.ToolName(name), ui.Score(entry["_score"]), ui.Dim("["+category+"]"), ui.Muted.Render(desc))
	}
	return nil
}
