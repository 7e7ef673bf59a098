package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/five82/regsync/internal/app"
	"github.com/five82/regsync/internal/config"
	"github.com/five82/regsync/internal/portal"
	"github.com/five82/regsync/internal/prefs"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", fmt.Sprintf("override regsync config path (default %s)", config.DefaultPath()))
	prefsPath := flag.String("prefs", "", fmt.Sprintf("override preferences path (default %s)", prefs.DefaultPath()))
	envFile := flag.String("env", "", "load REGSYNC_USERNAME/REGSYNC_PASSWORD from this .env file (optional)")
	flag.Usage = usage
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "regsync: load env file: %v\n", err)
			return 1
		}
	} else {
		_ = godotenv.Load() // .env in the working directory, if present
	}

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Command:    flag.Arg(0),
		Args:       flag.Args()[1:],
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "regsync: %s\n", portal.UserMessage(err))
		return 1
	}
	return 0
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: regsync [flags] <command> [args]\n\ncommands: %s\n\nflags:\n", strings.Join(app.Commands(), ", "))
	flag.PrintDefaults()
}
