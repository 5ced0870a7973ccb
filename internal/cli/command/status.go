package command

import (
	"io"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"
)

// Status is printed by the status command.
type Status struct {
	Server    string `json:"server" yaml:"server"`
	Installed bool   `json:"installed" yaml:"installed"`
	Health    string `json:"health" yaml:"health"`
	Ready     string `json:"ready" yaml:"ready"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "check that a gateway is installed, healthy and ready",
		Action: status,
	}
}

func status(c *cli.Context) error {
	hc, opts, err := client(c)
	if err != nil {
		return err
	}

	st := Status{Server: hc.BaseURL()}

	resp, err := hc.Get(c.Context, "/")
	if err != nil {
		return err
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	st.Installed = resp.StatusCode == http.StatusOK && strings.Contains(string(body), "ScuttleKit")

	health, err := hc.Health(c.Context, "/health")
	if err != nil {
		return err
	}
	st.Health = health.Status

	ready, err := hc.Health(c.Context, "/ready")
	if err != nil {
		return err
	}
	st.Ready = ready.Status
	st.Error = ready.Error

	if err := render(c, opts, st); err != nil {
		return err
	}
	if !st.Installed || st.Ready != "ready" {
		return cli.Exit("", 1)
	}
	return nil
}
