// Command proctor runs test scripts and serves their results.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/deixis/proctor"
	"github.com/deixis/proctor/internal/config"
	"github.com/deixis/proctor/internal/httpapi"
	"github.com/deixis/proctor/internal/mcp"
	"github.com/deixis/proctor/internal/report"
	"github.com/deixis/proctor/internal/script"
	"github.com/deixis/proctor/internal/workflow"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// errNotPassed makes the process exit 1 without printing another message.
var errNotPassed = errors.New("test did not pass")

func main() {
	log.SetFlags(0)
	log.SetPrefix("proctor: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = serveMain(args)
	case "mcp":
		err = mcpMain(args)
	case "run":
		err = runMain(args, os.Stdout)
	case "results":
		err = resultsMain(args, os.Stdout)
	case "result":
		err = resultMain(args, os.Stdout)
	case "tests":
		err = testsMain(args, os.Stdout)
	case "clear":
		err = clearMain(args, os.Stdout)
	case "version":
		fmt.Println(proctor.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "proctor: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if errors.Is(err, errNotPassed) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: proctor <command> [flags] [args]

Commands:
  serve       Start the HTTP API (with MCP at /mcp)
  mcp         Start the MCP server on stdio
  run         Run a test script and record the result
  results     List recorded results
  result      Show one recorded result by ID
  tests       List runnable test scripts
  clear       Delete all recorded results
  version     Print the version
  help        Show this help

Use "proctor <command> -h" for command-specific flags.`)
}

// --- serve ---

func serveMain(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "listen address (default from config, :3000)")
	_ = fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Addr()
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := workflow.NewEngine(cfg)
	server := mcp.NewServer(eng)
	mcpHandler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	api := httpapi.NewServer(eng, httpapi.Options{
		CORSOrigin: cfg.CORSOrigin(),
		MCP:        mcpHandler,
	})
	return api.ListenAndServe(ctx, addr)
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(mcp.Instructions)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := mcp.NewServer(workflow.NewEngine(cfg))
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

// --- run ---

func runMain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	typeFlag := fs.String("type", "", "script type: python, bash or shell (default: inferred from suffix)")
	jsonFlag := fs.Bool("json", false, "output the record as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one test name")
	}
	kind, err := script.ParseKind(*typeFlag)
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	rec, err := eng.RunTest(context.Background(), fs.Arg(0), kind)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if *jsonFlag {
		if err := writeJSON(out, rec); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, formatRecordCLI(rec))
	}

	if rec.Status != report.Pass {
		return errNotPassed
	}
	return nil
}

func formatRecordCLI(r report.Record) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	w("%s  %s (%s)  %dms\n", r.Status, r.TestName, r.ScriptType, r.Duration)
	w("run %s at %s\n", r.ID, r.Timestamp.Format(time.RFC3339))
	if r.Output != "" {
		w("\n%s\n", r.Output)
	}
	if r.ErrorOutput != "" {
		w("\nstderr:\n%s\n", r.ErrorOutput)
	}
	return string(b)
}

// --- results ---

func resultsMain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("results", flag.ExitOnError)
	limitFlag := fs.Int("limit", -1, "page size (requires -offset)")
	offsetFlag := fs.Int("offset", -1, "records to skip (requires -limit)")
	nameFlag := fs.String("name", "", "only show results for this test name")
	jsonFlag := fs.Bool("json", false, "output results as JSON")
	_ = fs.Parse(args)

	eng, err := newEngine()
	if err != nil {
		return err
	}

	var records []report.Record
	if *nameFlag != "" {
		records = eng.ResultsByName(*nameFlag)
	} else {
		var page *workflow.Page
		if *limitFlag >= 0 && *offsetFlag >= 0 {
			page = &workflow.Page{Limit: *limitFlag, Offset: *offsetFlag}
		}
		records, _ = eng.Results(page)
	}

	if *jsonFlag {
		return writeJSON(out, records)
	}
	for _, r := range records {
		fmt.Fprintf(out, "%-5s  %s  %-30s %6dms  %s\n",
			r.Status, r.Timestamp.Format(time.RFC3339), r.TestName, r.Duration, r.ID)
	}
	return nil
}

func resultMain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("result", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output the record as JSON")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("result: expected exactly one result ID")
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	rec, ok := eng.Result(fs.Arg(0))
	if !ok {
		return fmt.Errorf("result %s not found", fs.Arg(0))
	}
	if *jsonFlag {
		return writeJSON(out, rec)
	}
	fmt.Fprint(out, formatRecordCLI(rec))
	return nil
}

// --- tests ---

func testsMain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tests", flag.ExitOnError)
	_ = fs.Parse(args)

	eng, err := newEngine()
	if err != nil {
		return err
	}
	names, err := eng.Scripts()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

// --- clear ---

func clearMain(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	_ = fs.Parse(args)

	eng, err := newEngine()
	if err != nil {
		return err
	}
	eng.Clear()
	fmt.Fprintln(out, "All test results cleared")
	return nil
}

// --- shared ---

func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newEngine() (*workflow.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return workflow.NewEngine(cfg), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
