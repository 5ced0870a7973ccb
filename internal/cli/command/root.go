package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/scuttlekit-go/internal/cli/config"
	"github.com/yndnr/scuttlekit-go/internal/cli/connection"
	"github.com/yndnr/scuttlekit-go/internal/cli/output"
	"github.com/yndnr/scuttlekit-go/internal/infra/buildinfo"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "scuttlekit-cli",
		Usage:   "manage ScuttleKit app tokens and gateways",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			AppCommand(),
			StatusCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"SCUTTLEKIT_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "named profile from the CLI config",
			EnvVars: []string{"SCUTTLEKIT_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "gateway address (e.g. localhost:1103)",
			EnvVars: []string{"SCUTTLEKIT_SERVER"},
		},
		&cli.StringFlag{
			Name:    "path",
			Usage:   "node data directory holding scuttlekit/tokens.json",
			EnvVars: []string{"SCUTTLEKIT_PATH"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show more columns",
		},
	}
}

// loadConfig reads the CLI config file into App.Metadata.
func loadConfig(c *cli.Context) error {
	cfg, err := cliconfig.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// cliConfig returns the loaded config, or defaults when Before did not run.
func cliConfig(c *cli.Context) *cliconfig.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*cliconfig.CLIConfig); ok {
		return cfg
	}
	return cliconfig.Default()
}

// Options are the effective global settings: flags, then the selected
// profile, then the config file.
type Options struct {
	Server string
	Path   string
	Output output.Format
	Wide   bool
}

// ParseOptions resolves global flags against the CLI config.
func ParseOptions(c *cli.Context) (*Options, error) {
	cfg := cliConfig(c)

	server, path, ok := cfg.Resolve(c.String("profile"))
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", c.String("profile"))
	}
	if c.IsSet("server") {
		server = c.String("server")
	}
	if c.IsSet("path") {
		path = c.String("path")
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	return &Options{
		Server: server,
		Path:   path,
		Output: f,
		Wide:   c.Bool("wide"),
	}, nil
}

// client returns an HTTP client for the resolved server.
func client(c *cli.Context) (*connection.HTTPClient, *Options, error) {
	opts, err := ParseOptions(c)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(opts.Server, ""), opts, nil
}

// render renders data to the app writer in the selected format.
func render(c *cli.Context, opts *Options, data any) error {
	return output.NewFormatter(opts.Output, opts.Wide).Format(c.App.Writer, data)
}
