package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	catalogs map[models.Service]services.Catalog
	auth     services.AuthProvider
	db       *sql.DB
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Catalogs []services.Catalog
	Auth     services.AuthProvider
	DB       *sql.DB // Opened lazily from Config when nil
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Auth == nil {
		opts.Auth = services.NewTokenAuthorizer(map[models.Service]string{
			models.Spotify: opts.Config.Credentials.Spotify.AccessToken,
			models.YouTube: opts.Config.Credentials.YouTube.AccessToken,
		})
	}

	catalogs := make(map[models.Service]services.Catalog, len(opts.Catalogs))
	for _, c := range opts.Catalogs {
		catalogs[c.Name()] = c
	}

	return &Runner{
		config:   opts.Config,
		catalogs: catalogs,
		auth:     opts.Auth,
		db:       opts.DB,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playlistsCommand, convertCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// catalog resolves a configured service client.
func (r *Runner) catalog(svc models.Service) (services.Catalog, error) {
	c, ok := r.catalogs[svc]
	if !ok {
		return nil, fmt.Errorf("%w: %s service not initialized", shared.ErrServiceUnavailable, svc.DisplayName())
	}
	return c, nil
}

// database opens the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
