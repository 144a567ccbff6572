package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tickstate-go/internal/cli/connection"
	"github.com/yndnr/tickstate-go/internal/cli/output"
	"github.com/yndnr/tickstate-go/internal/infra/buildinfo"
	"github.com/yndnr/tickstate-go/internal/server/config"
	"github.com/yndnr/tickstate-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tickstate-cli",
		Usage:   "tickstate partition log, delta and fork tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LogCommand(),
			ForkCommand(),
			DiffCommand(),
			PatchCommand(),
			SchemaCommand(),
			AdminCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Server data directory for offline commands",
			EnvVars: []string{"TICKSTATE_STORAGE__DATA_DIR"},
			Value:   config.DefaultDataDir,
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tickstate-server admin address",
			EnvVars: []string{"TICKSTATE_CLI_SERVER"},
			Value:   config.DefaultAdminAddr,
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "Bearer token for the admin API",
			EnvVars: []string{"TICKSTATE_SECURITY__ADMIN_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log storage activity to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	DataDir    string
	Server     string
	AdminToken string
	Output     output.Format
	Verbose    bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		DataDir:    c.String("data-dir"),
		Server:     c.String("server"),
		AdminToken: c.String("admin-token"),
		Output:     format,
		Verbose:    c.Bool("verbose"),
	}
}

// render writes data in the selected output format to the app writer.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// cliLogger logs to stderr in verbose mode and discards otherwise.
func cliLogger(c *cli.Context) *slog.Logger {
	if !ParseGlobalFlags(c).Verbose {
		return logger.Discard()
	}
	return logger.New(logger.Config{Level: "debug", Format: "text", Output: os.Stderr})
}

// newClient returns an admin API client for the --server flag.
func newClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.Server, flags.AdminToken)
}

// requireArgs fails unless exactly n positional arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage)
	}
	return nil
}
