// Command drivesd serves the drives REST surface over an object store and
// provides a small client for it.
//
// Usage:
//
//	drivesd [-config file] [-env file] serve
//	drivesd [-config file] [-server url] <command> [args]
//
// Client commands: drives, ls, cat, put, rm, mv, cp, new, url, create.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/config"
)

const usage = `usage: drivesd [flags] <command> [args]

commands:
  serve                 run the REST surface
  drives                list drives
  ls [-match GLOB] PATH list a directory
  cat PATH              print a file
  put PATH FILE         upload FILE to PATH
  rm PATH               delete a file or directory
  mv OLD NEW            rename
  cp PATH DIR           copy PATH into DIR
  new [-kind K] DIR     create an untitled file, notebook or directory
  url PATH              print a download link
  create NAME [REGION]  create a drive

flags:
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("drivesd", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	envPath := fs.String("env", ".env", "optional file of DRIVES_* variables")
	serverURL := fs.String("server", "http://localhost:8888", "server URL for client commands")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	command, rest := fs.Arg(0), fs.Args()[1:]
	if command == "serve" {
		err = serve(ctx, cfg, logger)
	} else {
		err = runClient(ctx, cfg, logger, *serverURL, command, rest)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
