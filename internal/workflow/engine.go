// Package workflow sequences test executions: locate the script, run it,
// classify the outcome and record it. It is consumed by the HTTP API,
// the MCP server and the CLI commands.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/proctor/internal/config"
	"github.com/deixis/proctor/internal/metrics"
	"github.com/deixis/proctor/internal/report"
	"github.com/deixis/proctor/internal/runner"
	"github.com/deixis/proctor/internal/script"
	"github.com/deixis/proctor/internal/verdict"
)

// ErrValidation is returned when the caller's input is rejected before
// any execution is attempted.
var ErrValidation = errors.New("validation failed")

// ErrOutputCapped is recorded when a stream exceeded the runner's capture
// cap, leaving too little output to classify.
var ErrOutputCapped = errors.New("output exceeded capture limit; verdict not derived from partial output")

// CommandRunner executes commands.
// Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, argv []string) (*runner.Result, error)
}

// Engine holds shared dependencies for all execution and query
// operations. One Engine is constructed per process and shared by every
// caller; persisted results are loaded lazily on first use.
type Engine struct {
	Locator    *script.Locator
	Runner     CommandRunner
	Classifier verdict.Classifier
	Store      *report.Store
	MaxOutput  int // characters kept per stream

	Now   func() time.Time // defaults to time.Now
	NewID func() string    // defaults to uuid.NewString

	initOnce sync.Once
}

// NewEngine wires an Engine from configuration.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		Locator: &script.Locator{Root: cfg.TestsDir()},
		Runner: &runner.Runner{
			Timeout:    cfg.Timeout(),
			MaxCapture: cfg.MaxCapture,
		},
		Classifier: verdict.Heuristic{},
		Store:      report.NewStore(report.NewFileBackend(cfg.ResultsFile())),
		MaxOutput:  cfg.MaxOutput(),
	}
}

// Page selects a window of the newest-first result listing.
type Page struct {
	Limit  int
	Offset int
}

// init loads persisted results exactly once. Failures are logged and
// leave an empty store; they never reach the caller.
func (e *Engine) init() {
	e.initOnce.Do(func() {
		if err := e.Locator.EnsureRoot(); err != nil {
			log.Printf("initializing: %v", err)
		}
		if err := e.Store.Load(); err != nil {
			metrics.RecordPersistenceError("load")
			log.Printf("initializing: loading results failed, starting empty: %v", err)
		}
		metrics.SetStoredRecords(e.Store.Len())
	})
}

// RunTest executes the named script and records the outcome. kind
// overrides suffix inference when non-empty. Every failure after input
// validation is reported as an ERROR record rather than an error.
//
// The run is detached from ctx cancellation: only the runner timeout
// stops a child process.
func (e *Engine) RunTest(ctx context.Context, name string, kind script.Kind) (report.Record, error) {
	if strings.TrimSpace(name) == "" {
		return report.Record{}, fmt.Errorf("%w: test name is required", ErrValidation)
	}
	e.init()

	log.Printf("executing test: %s", name)
	rec := e.execute(context.WithoutCancel(ctx), name, kind)

	if err := e.Store.Append(rec); err != nil {
		metrics.RecordPersistenceError("save")
		log.Printf("saving results: %v", err)
	}
	metrics.SetStoredRecords(e.Store.Len())
	metrics.RecordRun(string(rec.Status), string(rec.ScriptType), time.Duration(rec.Duration)*time.Millisecond)

	return rec, nil
}

func (e *Engine) execute(ctx context.Context, name string, kind script.Kind) report.Record {
	start := e.now()
	rec := report.Record{
		ID:        e.newID(),
		TestName:  name,
		Timestamp: start,
	}

	fail := func(err error) report.Record {
		rec.Status = report.Error
		rec.Output = ""
		rec.ErrorOutput = err.Error()
		if kind == "" {
			kind = script.KindOf(name)
		}
		rec.ScriptType = kind
		rec.Duration = e.since(start)
		return rec
	}

	s, err := e.Locator.Locate(name, kind)
	if err != nil {
		return fail(err)
	}
	kind = s.Kind

	res, err := e.Runner.Run(ctx, script.Command(s.Kind, s.Path))
	if err != nil {
		return fail(err)
	}

	rec.Output = e.clip(res.Stdout, res.StdoutTruncated)
	if res.Stderr != "" || res.StderrTruncated {
		rec.ErrorOutput = e.clip(res.Stderr, res.StderrTruncated)
	}
	if res.Truncated() {
		// A verdict read from partial output could miss a later failure.
		rec.Status = report.Error
		rec.ErrorOutput = strings.TrimSpace(rec.ErrorOutput + "\n" + ErrOutputCapped.Error())
	} else {
		rec.Status = e.Classifier.Classify(res.Stdout, res.Stderr, res.ExitCode)
	}
	rec.ScriptType = s.Kind
	rec.Duration = e.since(start)
	return rec
}

// clip bounds stored output to MaxOutput and marks streams the runner cut.
func (e *Engine) clip(s string, cut bool) string {
	out := report.Truncate(s, e.MaxOutput)
	if cut && !strings.HasSuffix(out, report.TruncationMarker) {
		out += report.TruncationMarker
	}
	return out
}

// Results returns stored records newest first with the total count.
// A nil page returns every record.
func (e *Engine) Results(page *Page) ([]report.Record, int) {
	e.init()
	total := e.Store.Len()
	if page == nil {
		return e.Store.All(), total
	}
	return e.Store.Page(page.Limit, page.Offset), total
}

// Result returns the record with the given id.
func (e *Engine) Result(id string) (report.Record, bool) {
	e.init()
	return e.Store.Get(id)
}

// ResultsByName returns every record for testName, newest first.
func (e *Engine) ResultsByName(testName string) []report.Record {
	e.init()
	return e.Store.ByName(testName)
}

// Scripts lists the runnable scripts in the tests directory.
func (e *Engine) Scripts() ([]string, error) {
	return e.Locator.List()
}

// Clear removes every stored record. A failure to persist the empty
// collection is logged; the in-memory store is empty regardless.
func (e *Engine) Clear() {
	e.init()
	if err := e.Store.Clear(); err != nil {
		metrics.RecordPersistenceError("save")
		log.Printf("clearing results: %v", err)
	}
	metrics.SetStoredRecords(0)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e *Engine) since(start time.Time) int64 {
	return max(e.now().Sub(start).Milliseconds(), 0)
}
