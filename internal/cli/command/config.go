package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/scuttlekit-go/internal/cli/config"
	"github.com/yndnr/scuttlekit-go/internal/cli/output"
)

// ConfigCommand returns the config command group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "show or edit the CLI config file",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "print the effective CLI config",
				Action: configShow,
			},
			{
				Name:      "set",
				Usage:     "set server, path or output",
				ArgsUsage: "<key> <value>",
				Action:    configSet,
			},
			{
				Name:      "add-profile",
				Usage:     "save a named server/path pair",
				ArgsUsage: "<name> <server> [path]",
				Action:    configAddProfile,
			},
			{
				Name:      "use",
				Usage:     "select the default profile (\"\" clears it)",
				ArgsUsage: "<name>",
				Action:    configUse,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	format := output.FormatYAML
	if c.IsSet("output") {
		f, err := output.ParseFormat(c.String("output"))
		if err != nil {
			return err
		}
		format = f
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, cliConfig(c))
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowSubcommandHelp(c)
	}
	cfg := cliConfig(c)
	key, value := c.Args().Get(0), c.Args().Get(1)

	switch key {
	case "server":
		cfg.Server = value
	case "path":
		cfg.Path = value
	case "output":
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
		cfg.Output = value
	default:
		return fmt.Errorf("unknown key %q (want server, path or output)", key)
	}
	return cliconfig.Save(cfg, c.String("config"))
}

func configAddProfile(c *cli.Context) error {
	if c.NArg() < 2 || c.NArg() > 3 {
		return cli.ShowSubcommandHelp(c)
	}
	cfg := cliConfig(c)
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]cliconfig.Profile)
	}
	args := c.Args()
	cfg.Profiles[args.Get(0)] = cliconfig.Profile{
		Server: args.Get(1),
		Path:   args.Get(2),
	}
	return cliconfig.Save(cfg, c.String("config"))
}

func configUse(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	cfg := cliConfig(c)
	name := c.Args().First()
	if name != "" {
		if _, ok := cfg.Profiles[name]; !ok {
			return fmt.Errorf("unknown profile %q", name)
		}
	}
	cfg.CurrentProfile = name
	return cliconfig.Save(cfg, c.String("config"))
}
