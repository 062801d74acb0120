package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/catalogapi/filestore"
	"github.com/JourneyJu/dsg-sub010/formats"
	"github.com/JourneyJu/dsg-sub010/internal/config"
	"github.com/JourneyJu/dsg-sub010/internal/logging"
	"github.com/JourneyJu/dsg-sub010/recordset"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// eventTypes lists the event names accepted by apply scripts
var eventTypes = []string{
	types.EventFieldEdit, types.EventBatchEdit, types.EventReorder, types.EventSearch,
	types.EventSelection, types.EventEnterBatch, types.EventCommitBatch, types.EventCancelBatch,
	types.EventPrimaryKey, types.EventAddRecord, types.EventDeleteRecs,
}

// CLI wires cobra commands to viper settings and the catalog backends
type CLI struct {
	rootCmd  *cobra.Command
	v        *viper.Viper
	settings config.Settings
	logger   *zap.Logger

	// store is set when the local file store backs the commands
	store *filestore.Store
}

// NewCLI creates the command tree
func NewCLI() *CLI {
	cli := &CLI{v: viper.New(), logger: zap.NewNop()}
	cli.createRootCommand()
	cli.rootCmd.AddCommand(
		cli.serveCommand(),
		cli.showCommand(),
		cli.validateCommand(),
		cli.applyCommand(),
		cli.importCommand(),
		cli.sourcesCommand(),
		cli.configCommand(),
	)
	return cli
}

// Execute runs the command line
func (cli *CLI) Execute() error {
	defer cli.close()
	return cli.rootCmd.Execute()
}

// SetArgs, SetOut and SetErr redirect the command line, for tests
func (cli *CLI) SetArgs(args []string) { cli.rootCmd.SetArgs(args) }
func (cli *CLI) SetOut(w io.Writer)    { cli.rootCmd.SetOut(w) }
func (cli *CLI) SetErr(w io.Writer)    { cli.rootCmd.SetErr(w) }

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "catalogctl",
		Short: "Edit and validate information-item catalogs",
		Long: `catalogctl works on the information items (field-level metadata) of business
forms and data catalogs.

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (DSG_*, e.g. DSG_API_URL, DSG_STORE)
  3. Config file: $DSG_CONFIG, or dsg.yaml in ., $XDG_CONFIG_HOME/dsg, /etc/dsg

Records come from the catalog API at --api-url when set, otherwise from the
local JSON catalog at --store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize(cmd)
		},
	}

	flags := cli.rootCmd.PersistentFlags()
	flags.String("api-url", "", "catalog API base URL (remote backend)")
	flags.StringP("store", "s", "", "local JSON catalog path")
	flags.StringP("format", "f", "", "output format ("+strings.Join(formats.List(), "|")+")")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.Bool("log-json", false, "write JSON log lines")
	flags.String("log-file", "", "also write logs to this file")
	flags.Bool("primary-key-required", false, "require a primary key when validating")
	flags.Int("concurrency", 0, "sources processed in parallel")
}

// initialize resolves settings and the logger once flags are parsed
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if err := config.Setup(cli.v); err != nil {
		return NewConfigError("load configuration", err)
	}

	// bind only flags the user set, so unset flags never shadow env or file values
	var bindErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := cli.v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return NewConfigError("bind flags", bindErr)
	}

	settings, err := config.Load(cli.v)
	if err != nil {
		return NewConfigError("load configuration", err)
	}
	cli.settings = settings

	logger, _, err := logging.New(logging.Options{
		Level: settings.LogLevel,
		JSON:  settings.LogJSON,
		File:  settings.LogFile,
	})
	if err != nil {
		return NewConfigError("set up logging", err)
	}
	cli.logger = logger
	cli.logger.Debug("configuration loaded",
		zap.String("config_file", config.UsedFile(cli.v)),
		zap.String("api_url", settings.APIURL),
		zap.String("store", settings.Store))
	return nil
}

// client returns the catalog backend the settings select
func (cli *CLI) client() (catalogapi.Client, error) {
	if cli.settings.APIURL != "" {
		c, err := catalogapi.NewHTTPClient(cli.settings.APIURL,
			catalogapi.WithHTTPLogger(cli.logger.Named("catalogapi")))
		if err != nil {
			return nil, NewConfigError("connect to catalog API", err)
		}
		return c, nil
	}
	return cli.localStore()
}

// localStore opens the JSON catalog, regardless of --api-url
func (cli *CLI) localStore() (*filestore.Store, error) {
	if cli.store != nil {
		return cli.store, nil
	}
	s, err := filestore.New(cli.settings.Store, filestore.WithLogger(cli.logger.Named("filestore")))
	if err != nil {
		return nil, WrapError("open store "+cli.settings.Store, err)
	}
	cli.store = s
	return s, nil
}

func (cli *CLI) close() {
	if cli.store != nil {
		_ = cli.store.Close()
		cli.store = nil
	}
	_ = cli.logger.Sync()
}

// controller creates a controller over the configured backend and loads sourceID
func (cli *CLI) controller(ctx context.Context, sourceID string) (*recordset.Controller, error) {
	client, err := cli.client()
	if err != nil {
		return nil, err
	}
	return cli.load(ctx, client, sourceID)
}

// load creates a controller over client and loads sourceID
func (cli *CLI) load(ctx context.Context, client catalogapi.Client, sourceID string) (*recordset.Controller, error) {
	c := recordset.New(client,
		recordset.WithConfig(cli.settings.Schema()),
		recordset.WithLogger(cli.logger.Named("recordset")))

	ctx, cancel := cli.requestContext(ctx)
	defer cancel()
	if _, err := c.Load(ctx, sourceID); err != nil {
		return nil, err
	}
	return c, nil
}

func (cli *CLI) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cli.settings.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cli.settings.RequestTimeout)
}

// render writes a view in the --format selected format
func (cli *CLI) render(w io.Writer, view types.View, columns []string) error {
	return formats.Render(w, cli.settings.Format, view, formats.Options{Columns: columns, MaxCellWidth: 40})
}

func stdinOr(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
