package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// AppCommand returns the app command group.
func AppCommand() *cli.Command {
	return &cli.Command{
		Name:  "app",
		Usage: "register apps with a gateway",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "register an app and print its token",
				Description: "Parameters come from --file (JSON or YAML, same shape as the\n" +
					"POST /register body) and are overridden by the other flags.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "registration document"},
					&cli.StringFlag{Name: "name", Usage: "app name"},
					&cli.StringFlag{Name: "id", Usage: "app identifier"},
					&cli.StringFlag{Name: "app-version", Usage: "app version"},
					&cli.StringSliceFlag{Name: "read", Usage: "message type to request read access on"},
					&cli.StringSliceFlag{Name: "write", Usage: "message type to request write access on"},
				},
				Action: appRegister,
			},
		},
	}
}

// readParams decodes a registration document. YAML is decoded to a generic
// value first so the JSON field names apply to both formats.
func readParams(path string) (*domain.RegistrationParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var params domain.RegistrationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &params, nil
}

// paramsFromFlags merges flag values over the optional --file document.
func paramsFromFlags(c *cli.Context) (*domain.RegistrationParams, error) {
	params := &domain.RegistrationParams{}
	if f := c.String("file"); f != "" {
		p, err := readParams(f)
		if err != nil {
			return nil, err
		}
		params = p
	}

	if c.IsSet("name") {
		params.AppName = c.String("name")
	}
	if c.IsSet("id") {
		params.AppID = c.String("id")
	}
	if c.IsSet("app-version") {
		params.Version = c.String("app-version")
	}

	if params.MessageTypes == nil {
		params.MessageTypes = make(map[string]domain.AccessType)
	}
	for _, t := range c.StringSlice("read") {
		a := params.MessageTypes[strings.TrimSpace(t)]
		a.Read = true
		params.MessageTypes[strings.TrimSpace(t)] = a
	}
	for _, t := range c.StringSlice("write") {
		a := params.MessageTypes[strings.TrimSpace(t)]
		a.Write = true
		params.MessageTypes[strings.TrimSpace(t)] = a
	}

	if params.AppName == "" && params.AppID == "" && len(params.MessageTypes) == 0 {
		return nil, errors.New("nothing to register: use --file or --name/--id/--read/--write")
	}
	return params, nil
}

func appRegister(c *cli.Context) error {
	params, err := paramsFromFlags(c)
	if err != nil {
		return err
	}
	// Fail fast with the same message the gateway would send.
	if err := params.Validate(); err != nil {
		return err
	}

	hc, opts, err := client(c)
	if err != nil {
		return err
	}
	resp, err := hc.Register(c.Context, params)
	if err != nil {
		return err
	}
	return render(c, opts, resp)
}
