package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/regsync/internal/config"
	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/logging"
	"github.com/five82/regsync/internal/portal"
	"github.com/five82/regsync/internal/prefs"
	"github.com/five82/regsync/internal/state"
	"github.com/five82/regsync/internal/transport"
)

// Options configure a regsync invocation.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses the config's prefs_path, then ~/.config/regsync/prefs.toml
	Command    string
	Args       []string

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Interactive reports whether a person is at the terminal; defaults to checking stdin.
	Interactive func() bool
}

type commandFunc func(a *app, ctx context.Context, args []string) error

var commands = map[string]commandFunc{
	"login":          (*app).login,
	"probe":          (*app).probe,
	"classes":        (*app).classes,
	"absence-detail": (*app).absenceDetail,
	"submit-absence": (*app).submitAbsence,
	"submit-grades":  (*app).submitGrades,
	"base-url":       (*app).baseURL,
	"log":            (*app).log,
}

// Commands returns the command names in sorted order.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// app holds the components one command runs against.
type app struct {
	cfg       config.Config
	prefsPath string
	logger    zerolog.Logger

	prefs     *prefs.FileStore
	registry  *endpoints.Registry
	store     *state.Store
	manager   *portal.Manager
	resolver  *portal.Resolver
	submitter *portal.Submitter

	stdout      io.Writer
	stderr      io.Writer
	getenv      func(string) string
	interactive func() bool
}

// Run loads configuration, wires the registry client and executes one command.
func Run(ctx context.Context, opts Options) error {
	command := strings.TrimSpace(opts.Command)
	run, ok := commands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q (want one of %s)", portal.ErrInvalidInput, command, strings.Join(Commands(), ", "))
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	a := newApp(cfg, opts, logger)
	logger.Info().Str("command", command).Msg("command started")
	if err := run(a, ctx, opts.Args); err != nil {
		logger.Error().Err(err).Str("command", command).Msg("command failed")
		return err
	}
	logger.Info().Str("command", command).Msg("command finished")
	return nil
}

func newApp(cfg config.Config, opts Options, logger zerolog.Logger) *app {
	prefsPath := strings.TrimSpace(opts.PrefsPath)
	if prefsPath == "" {
		prefsPath = cfg.PrefsPath
	}

	store := &state.Store{}
	prefStore := prefs.NewFileStore(prefsPath)
	registry := endpoints.NewRegistry(prefStore, endpoints.WithDefaultBaseURL(cfg.BaseURL))
	sender := transport.New(
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithLogger(logger.With().Str("component", "transport").Logger()),
	)
	portalOpts := portal.Options{
		Timeouts: cfg.Timeouts,
		Logger:   &logger,
		Observe:  store.SetLoginState,
	}

	a := &app{
		cfg:         cfg,
		prefsPath:   prefsPath,
		logger:      logger,
		prefs:       prefStore,
		registry:    registry,
		store:       store,
		manager:     portal.NewManager(registry, sender, portalOpts),
		resolver:    portal.NewResolver(sender, portalOpts),
		submitter:   portal.NewSubmitter(registry, sender, portalOpts),
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		getenv:      opts.Getenv,
		interactive: opts.Interactive,
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.getenv == nil {
		a.getenv = os.Getenv
	}
	if a.interactive == nil {
		a.interactive = stdinIsTerminal
	}
	return a
}
