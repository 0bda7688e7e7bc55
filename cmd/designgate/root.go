package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wilhg/designgate/pkg/app"
	"github.com/wilhg/designgate/pkg/config"
	"github.com/wilhg/designgate/pkg/logging"
	"github.com/wilhg/designgate/pkg/mcpclient"
	telemetry "github.com/wilhg/designgate/pkg/otel"
)

// cli holds the streams and global flags shared by every command.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	envFile    string
	logLevel   string
	logFormat  string

	// Overrides installed by tests.
	appOpts    []app.Option
	clientOpts []mcpclient.Option
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "designgate",
		Short:         "Design standards gateway in front of a LeanIX MCP server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", getEnv("DESIGNGATE_CONFIG", ""), "YAML config file")
	pf.StringVar(&c.envFile, "env-file", ".env", "dotenv file; ignored when missing")
	pf.StringVar(&c.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	pf.StringVar(&c.logFormat, "log-format", "", "log format: console or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newServeCmd(c),
		newQueryCmd(c),
		newToolsCmd(c),
		newHistoryCmd(c),
		newCheckPromptsCmd(),
		newVersionCmd(),
	)
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: c.configFile, DotEnvFile: c.envFile})
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	return cfg, nil
}

func (c *cli) logger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, c.errOut)
}

// services is everything a command that runs operations needs.
type services struct {
	cfg      *config.Config
	log      zerolog.Logger
	ctr      *app.Container
	shutdown func(context.Context) error
}

func (r *services) Close() {
	_ = r.ctr.Close()
	_ = r.shutdown(context.Background())
}

// start loads and validates configuration, then wires the services.
// Configuration errors surface here, before anything is served.
func (c *cli) start(ctx context.Context) (*services, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := c.logger(cfg)
	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceVersion: version, UseStdout: cfg.Telemetry.Stdout})
	if err != nil {
		return nil, err
	}
	opts := append([]app.Option{app.WithClientOptions(c.clientOpts...)}, c.appOpts...)
	ctr, err := app.New(ctx, cfg, log, version, opts...)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, err
	}
	return &services{cfg: cfg, log: log, ctr: ctr, shutdown: shutdown}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "designgate %s (commit=%s, date=%s)\n", version, commit, date)
		},
	}
}
