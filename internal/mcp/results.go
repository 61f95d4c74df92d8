package mcp

import (
	"context"
	"fmt"

	"github.com/deixis/proctor/internal/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type listResultsParams struct {
	Limit  *int `json:"limit,omitempty" jsonschema:"maximum number of results to return; used only together with offset"`
	Offset *int `json:"offset,omitempty" jsonschema:"number of newest results to skip; used only together with limit"`
}

func (h *handler) listResultsHandler(ctx context.Context, req *mcp.CallToolRequest, params listResultsParams) (*mcp.CallToolResult, any, error) {
	var page *workflow.Page
	if params.Limit != nil && params.Offset != nil {
		if *params.Limit < 0 || *params.Offset < 0 {
			return errorResult("limit and offset must not be negative")
		}
		page = &workflow.Page{Limit: *params.Limit, Offset: *params.Offset}
	}

	records, total := h.engine.Results(page)
	return textResult(formatSummary(fmt.Sprintf("Results: %d of %d", len(records), total), records))
}

type getResultParams struct {
	ID string `json:"id" jsonschema:"the run ID from a run_test or list_results result"`
}

func (h *handler) getResultHandler(ctx context.Context, req *mcp.CallToolRequest, params getResultParams) (*mcp.CallToolResult, any, error) {
	if params.ID == "" {
		return errorResult("id is required")
	}
	rec, ok := h.engine.Result(params.ID)
	if !ok {
		return errorResult(fmt.Sprintf("No result with ID %s.", params.ID))
	}
	return textResult(formatRecord(rec))
}

type resultsByTestParams struct {
	TestName string `json:"test_name" jsonschema:"the script file name to filter by"`
}

func (h *handler) resultsByTestHandler(ctx context.Context, req *mcp.CallToolRequest, params resultsByTestParams) (*mcp.CallToolResult, any, error) {
	if params.TestName == "" {
		return errorResult("test_name is required")
	}
	records := h.engine.ResultsByName(params.TestName)
	return textResult(formatSummary(fmt.Sprintf("Results for %s: %d", params.TestName, len(records)), records))
}

type clearParams struct{}

func (h *handler) clearHandler(ctx context.Context, req *mcp.CallToolRequest, _ clearParams) (*mcp.CallToolResult, any, error) {
	h.engine.Clear()
	return textResult("All test results cleared.")
}
