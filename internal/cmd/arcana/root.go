package arcana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/platform/logging"
	platformotel "github.com/louisbranch/arcana/internal/platform/otel"
	"github.com/louisbranch/arcana/internal/platform/timeouts"
	"github.com/louisbranch/arcana/internal/services/arcana/app"
)

const serviceName = "arcana"

// cli carries state shared by every subcommand of one invocation.
type cli struct {
	cfg     Config
	jsonOut bool

	logger   *zap.Logger
	shutdown func(context.Context) error
}

// newRoot builds the command tree over cfg.
func newRoot(cfg Config) (*cobra.Command, *cli) {
	c := &cli{cfg: cfg, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "arcana",
		Short:         "Compose, cost and record ordinances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(c.cfg.Log)
			if err != nil {
				return err
			}
			c.logger = logger
			shutdown, err := platformotel.Setup(cmd.Context(), serviceName, c.cfg.Otel)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			c.shutdown = shutdown
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.StoreBackend, "store", c.cfg.StoreBackend, "store backend: json or sqlite")
	flags.StringVar(&c.cfg.StorePath, "db", c.cfg.StorePath, "JSON store file")
	flags.StringVar(&c.cfg.SQLitePath, "sqlite", c.cfg.SQLitePath, "SQLite store file")
	flags.StringVar(&c.cfg.CatalogPath, "catalog", c.cfg.CatalogPath, "directory with precepts.yaml, numen.yaml and modifiers.yaml")
	flags.StringVar(&c.cfg.Locale, "locale", c.cfg.Locale, "locale for summaries and errors")
	flags.StringVar(&c.cfg.Log.Level, "log-level", c.cfg.Log.Level, "log level")
	flags.BoolVar(&c.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		c.composeCommand(),
		c.saveCommand(),
		c.grimoireCommand(),
		c.exportCommand(),
		c.catalogCommand(),
		c.rollCommand(),
		c.mcpCommand(),
	)
	return root, c
}

// Execute runs the command tree with args and renders domain errors in the
// configured locale.
func Execute(ctx context.Context, cfg Config, args []string, stdout io.Writer) error {
	root, c := newRoot(cfg)
	defer c.close()
	root.SetArgs(args)
	root.SetOut(stdout)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
		return &commandError{
			message: fmt.Sprintf("%s: %s", code, apperrors.Localize(err, c.cfg.Locale)),
			cause:   err,
		}
	}
	return err
}

// commandError is a domain error rendered in the configured locale. The
// cause stays reachable so ExitCode can classify it.
type commandError struct {
	message string
	cause   error
}

func (e *commandError) Error() string { return e.message }

func (e *commandError) Unwrap() error { return e.cause }

// ExitCode maps an Execute error to a process exit status: the gRPC code of a
// domain error, 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return 1
	}
	return int(code.GRPCCode())
}

func (c *cli) close() {
	if c.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := c.shutdown(ctx); err != nil {
			c.logger.Warn("otel shutdown", zap.Error(err))
		}
		c.shutdown = nil
	}
	_ = c.logger.Sync()
}

// withService opens the service for the duration of fn.
func (c *cli) withService(fn func(*app.Service) error) (err error) {
	svc, closeStore, err := openService(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()
	return fn(svc)
}

// printJSON writes value as indented JSON.
func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
