package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/deixis/proctor"
	"github.com/deixis/proctor/internal/report"
	"github.com/deixis/proctor/internal/script"
	"github.com/deixis/proctor/internal/workflow"
)

type runTestRequest struct {
	TestName   string `json:"testName"`
	ScriptType string `json:"scriptType,omitempty"`
}

type runTestResponse struct {
	Success bool           `json:"success"`
	Result  *report.Record `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type resultsResponse struct {
	Success bool            `json:"success"`
	Results []report.Record `json:"results"`
	Total   int             `json:"total"`
}

type testsResponse struct {
	Success bool     `json:"success"`
	Tests   []string `json:"tests"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type notFoundResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Path    string `json:"path"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // seconds
}

func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	var req runTestRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.TestName == "" {
		writeError(w, http.StatusBadRequest, "Test name is required")
		return
	}
	kind, err := script.ParseKind(req.ScriptType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.engine.RunTest(r.Context(), req.TestName, kind)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, workflow.ErrValidation) {
			status = http.StatusBadRequest
		}
		log.Printf("running test %s: %v", req.TestName, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runTestResponse{Success: true, Result: &rec})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, total := s.engine.Results(page)
	writeJSON(w, http.StatusOK, resultsResponse{Success: true, Results: results, Total: total})
}

// parsePage returns a page only when both limit and offset are given.
func parsePage(r *http.Request) (*workflow.Page, error) {
	q := r.URL.Query()
	rawLimit, rawOffset := q.Get("limit"), q.Get("offset")

	limit, err := parseNonNegative("limit", rawLimit)
	if err != nil {
		return nil, err
	}
	offset, err := parseNonNegative("offset", rawOffset)
	if err != nil {
		return nil, err
	}
	if rawLimit == "" || rawOffset == "" {
		return nil, nil
	}
	return &workflow.Page{Limit: limit, Offset: offset}, nil
}

func parseNonNegative(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := s.engine.Result(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Test result not found")
		return
	}
	writeJSON(w, http.StatusOK, runTestResponse{Success: true, Result: &rec})
}

func (s *Server) handleResultsByName(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["testName"]
	results := s.engine.ResultsByName(name)
	writeJSON(w, http.StatusOK, resultsResponse{Success: true, Results: results, Total: len(results)})
}

func (s *Server) handleTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.engine.Scripts()
	if err != nil {
		log.Printf("listing tests: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, testsResponse{Success: true, Tests: tests})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.engine.Clear()
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "All test results cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "proctor test automation backend",
		"version": proctor.Version,
		"endpoints": map[string]string{
			"POST /api/run-tests":             "Execute a test script",
			"GET /api/results":                "Get all test results",
			"GET /api/results/:id":            "Get test result by ID",
			"GET /api/results/test/:testName": "Get results for specific test",
			"GET /api/tests":                  "Get available test files",
			"DELETE /api/results":             "Clear all test results",
			"GET /health":                     "Health check",
			"GET /metrics":                    "Prometheus metrics",
		},
	})
}
