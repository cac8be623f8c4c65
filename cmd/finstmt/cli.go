package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/finstmt"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Source   finstmt.DocumentSource
	Parser   finstmt.DocumentParser
	Store    finstmt.TableStore
	Renderer finstmt.TableRenderer
	Handler  http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    kong.ConfigFlag `help:"Read flag defaults from a YAML file"`
	Verbose   bool            `short:"v" help:"Log debug output to stderr"`
	UserAgent string          `name:"user-agent" env:"FINSTMT_USER_AGENT" help:"User-Agent for HTTP requests (EDGAR expects contact details)"`
	Timeout   time.Duration   `short:"t" default:"30s" help:"HTTP request timeout"`
	RateLimit float64         `name:"rate-limit" default:"10" help:"Maximum HTTP requests per second"`

	Extract ExtractCmd `cmd:"" help:"Extract financial statements from a filing"`
	Tables  TablesCmd  `cmd:"" help:"List every table in a filing with its classification"`
	Serve   ServeCmd   `cmd:"" help:"Serve extraction over HTTP"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Location    string `arg:"" help:"Path or URL of the filing"`
	Out         string `short:"o" default:"financial_tables" help:"Output directory for CSV files"`
	Policy      string `default:"last" enum:"last,largest" help:"Table kept when several match a kind (last, largest)"`
	Concurrency int    `short:"c" default:"1" help:"Tables processed concurrently"`
	DB          string `name:"db" help:"Also store statements in this SQLite database"`
	Show        bool   `help:"Print a markdown preview of every statement found"`
	DryRun      bool   `name:"dry-run" help:"Classify tables without writing files"`
}

// TablesCmd is the "tables" subcommand.
type TablesCmd struct {
	Location string `arg:"" help:"Path or URL of the filing"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr        string `short:"a" default:"localhost:8080" help:"Address to listen on"`
	Concurrency int    `short:"c" default:"1" help:"Tables processed concurrently per request"`
	MaxBody     int64  `name:"max-body" default:"67108864" help:"Largest filing accepted, in bytes"`
}
