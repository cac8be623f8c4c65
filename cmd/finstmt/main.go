package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/finstmt"
	finchi "github.com/fwojciec/finstmt/chi"
	"github.com/fwojciec/finstmt/fs"
	"github.com/fwojciec/finstmt/goquery"
	"github.com/fwojciec/finstmt/htmltomarkdown"
	finhttp "github.com/fwojciec/finstmt/http"
	finslog "github.com/fwojciec/finstmt/slog"
	"github.com/fwojciec/finstmt/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
	stop()
}

// Main represents the program.
type Main struct {
	// Configuration files read before parsing flags. Set before calling Run().
	ConfigPaths []string

	// SQLite database, opened only when extract is given --db.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: DefaultConfigPaths,
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("finstmt"),
		kong.Description("Extract financial statement tables from SEC filings."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(YAML, m.ConfigPaths...),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'finstmt --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	httpOpts := []finhttp.Option{
		finhttp.WithTimeout(cli.Timeout),
		finhttp.WithRateLimit(cli.RateLimit),
	}
	if cli.UserAgent != "" {
		httpOpts = append(httpOpts, finhttp.WithUserAgent(cli.UserAgent))
	}
	source := NewLocationSource(finhttp.NewSource(httpOpts...), fs.NewSource())

	deps.Source = finslog.NewLoggingSource(source, logger)
	deps.Parser = finslog.NewLoggingParser(goquery.NewParser(), logger)
	deps.Renderer = htmltomarkdown.NewRenderer()

	var selected string
	if node := kongCtx.Selected(); node != nil {
		selected = node.Name
	}

	switch selected {
	case "extract":
		if cli.Extract.DryRun {
			break
		}
		store, err := m.openStore(&cli.Extract)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: --db must point to a writable location")
			return err
		}
		defer m.Close()
		deps.Store = finslog.NewLoggingTableStore(store, logger)
	case "serve":
		deps.Handler = finchi.NewServer(deps.Parser, logger,
			finchi.WithConcurrency(cli.Serve.Concurrency),
			finchi.WithMaxBodyBytes(cli.Serve.MaxBody),
		)
	}

	return kongCtx.Run(deps)
}

// openStore returns the stores the extract command writes to. The database
// is listed first so CSV files are only moved into place after it commits.
func (m *Main) openStore(cmd *ExtractCmd) (finstmt.TableStore, error) {
	var stores finstmt.MultiTableStore

	if cmd.DB != "" {
		m.DB = sqlite.NewDB(cmd.DB)
		if err := m.DB.Open(); err != nil {
			return nil, fmt.Errorf("failed to open database at %q: %w", cmd.DB, err)
		}
		stores = append(stores, sqlite.NewTableStore(m.DB, cmd.Location))
	}

	stores = append(stores, fs.NewCSVStore(cmd.Out))
	return stores, nil
}
