package mcp

import (
	"context"
	"fmt"

	"github.com/deixis/proctor/internal/script"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	TestName   string `json:"test_name" jsonschema:"file name of the script in the tests directory (e.g. test_disk_usage.py)"`
	ScriptType string `json:"script_type,omitempty" jsonschema:"interpreter to use: python, bash or shell. Inferred from the file suffix when omitted."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if params.TestName == "" {
		return errorResult("test_name is required")
	}
	kind, err := script.ParseKind(params.ScriptType)
	if err != nil {
		return errorResult(err.Error())
	}

	rec, err := h.engine.RunTest(ctx, params.TestName, kind)
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}
	return textResult(formatRecord(rec))
}
