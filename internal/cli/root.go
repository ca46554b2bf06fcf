package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/movieweb/internal/app"
	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/config"
	"github.com/dmitrijs2005/movieweb/internal/logging"
	"github.com/dmitrijs2005/movieweb/internal/storage"
)

type CLI struct {
	out     io.Writer
	errOut  io.Writer
	appOpts []app.Option

	app    *app.App
	logger logging.Logger
}

// New returns a CLI printing results to out and diagnostics to errOut.
// opts are passed on to every app.NewApp call.
func New(out, errOut io.Writer, opts ...app.Option) *CLI {
	return &CLI{out: out, errOut: errOut, appOpts: opts}
}

// NewRootCmd builds the command tree.
func (c *CLI) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "movieweb",
		Short: "Administer the movieweb data store",
		Long: `movieweb manages users, their movie lists and reviews in the configured
storage backend (json, sqlite or postgres).

Configuration is read from defaults, then the JSON file given by --config,
then MOVIEWEB_* environment variables and finally the flags below.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.openApp,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.usersCmd(),
		c.moviesCmd(),
		c.reviewsCmd(),
		c.restoreCmd(),
	)
	return root
}

// Execute runs the command line in args and returns the process exit code.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	root := c.NewRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if cerr := c.closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}

	if c.logger != nil {
		c.logger.Error(ctx, "command failed", "error", err)
	}
	_ = printJSON(c.errOut, errorView{Error: err.Error(), Kind: kindOf(err)})
	return exitCode(err)
}

func kindOf(err error) string {
	if errors.Is(err, errInvalidCredentials) {
		return "invalid_credentials"
	}
	return common.Kind(err)
}

func (c *CLI) openApp(cmd *cobra.Command, _ []string) error {
	if c.app != nil {
		return nil
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("%w: config: %w", common.ErrInvalidInput, err)
	}

	logger, err := logging.New(c.errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.logger = logger.With("command", cmd.CommandPath())

	a, err := app.NewApp(cmd.Context(), cfg, c.logger, c.appOpts...)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *CLI) closeApp() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *CLI) store() storage.Storage {
	return c.app.Storage()
}

func (c *CLI) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore-default",
		Short: "Replace the database with the default snapshot",
		Long: `Replace the sqlite database with the configured default snapshot, read from
--default-snapshot or from S3 when --snapshot-s3-bucket and --snapshot-s3-key
are set. The json and postgres backends do not support this.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.RestoreDefault(cmd.Context()); err != nil {
				return err
			}
			return printJSON(c.out, map[string]bool{"restored": true})
		},
	}
}
