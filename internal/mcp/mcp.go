// Package mcp provides the proctor MCP server, registering all tools
// and publishing model instructions.
package mcp

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/proctor"
	"github.com/deixis/proctor/internal/report"
	"github.com/deixis/proctor/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *workflow.Engine
}

// NewServer creates an MCP server with all proctor tools registered.
func NewServer(engine *workflow.Engine) *mcp.Server {
	h := &handler{engine: engine}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "proctor", Version: proctor.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_test",
		Description: `Run a test script from the tests directory and record the outcome.

Blocks until the script exits or hits the timeout. Returns the stored record with
status PASS, FAIL or ERROR, the run ID and captured output.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_tests",
		Description: "List the runnable scripts (.py, .sh, .bash) in the tests directory.",
	}, h.listTestsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "list_results",
		Description: `List recorded results, newest first.

Pass both limit and offset to page through history; otherwise every record is returned.`,
	}, h.listResultsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_result",
		Description: "Show a single recorded result by run ID, including its full stored output.",
	}, h.getResultHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "results_by_test",
		Description: "List every recorded result for one test name, newest first.",
	}, h.resultsByTestHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "clear_results",
		Description: "Delete all recorded results. This cannot be undone.",
	}, h.clearHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}

// formatRecord renders a record with its output.
func formatRecord(r report.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	fmt.Fprintf(&b, "Test: %s (%s)\n", r.TestName, r.ScriptType)
	fmt.Fprintf(&b, "Started: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %dms\n", r.Duration)

	writeBlock(&b, "Output", r.Output)
	writeBlock(&b, "Error output", r.ErrorOutput)

	return b.String()
}

func writeBlock(b *strings.Builder, title, text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(b)
	fmt.Fprintf(b, "%s:\n", title)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}

// formatSummary renders one line per record.
func formatSummary(header string, records []report.Record) string {
	var b strings.Builder
	fmt.Fprintln(&b, header)
	if len(records) == 0 {
		fmt.Fprintln(&b, "No results.")
		return b.String()
	}
	fmt.Fprintln(&b)
	for _, r := range records {
		fmt.Fprintf(&b, "  %-5s %s  %s  %dms  %s\n",
			r.Status, r.Timestamp.Format(time.RFC3339), r.TestName, r.Duration, r.ID)
	}
	return b.String()
}
