package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type listTestsParams struct{}

func (h *handler) listTestsHandler(ctx context.Context, req *mcp.CallToolRequest, _ listTestsParams) (*mcp.CallToolResult, any, error) {
	names, err := h.engine.Scripts()
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list tests: %v", err))
	}
	if len(names) == 0 {
		return textResult("No test scripts found.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tests (%d):\n", len(names))
	for _, n := range names {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	return textResult(b.String())
}
