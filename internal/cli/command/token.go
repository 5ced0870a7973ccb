package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
	"github.com/yndnr/scuttlekit-go/internal/storage/tokenstore"
	"github.com/yndnr/scuttlekit-go/pkg/token"
)

// minFingerprintPrefix is the shortest fingerprint prefix accepted in
// place of a token.
const minFingerprintPrefix = 6

// TokenRow is one token as shown by token list and token show.
type TokenRow struct {
	Fingerprint string                   `json:"fingerprint" yaml:"fingerprint"`
	AppName     string                   `json:"appName" yaml:"appName"`
	Identifier  string                   `json:"identifier" yaml:"identifier"`
	Version     string                   `json:"version" yaml:"version" table:"wide"`
	Types       map[string]domain.Access `json:"types" yaml:"types"`
	Token       string                   `json:"token,omitempty" yaml:"token,omitempty" table:"wide"`
}

func newTokenRow(t domain.Token, reveal bool) TokenRow {
	row := TokenRow{
		Fingerprint: token.Fingerprint(t.Token),
		AppName:     t.Settings.Name,
		Identifier:  t.Settings.Identifier,
		Version:     t.Settings.Version,
		Types:       t.Settings.Types,
	}
	if reveal {
		row.Token = t.Token
	}
	return row
}

// TokenCommand returns the token command group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"tk"},
		Usage:   "inspect and revoke app tokens",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "list tokens in the local store",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "include the secret token values"},
					&cli.StringFlag{Name: "app", Usage: "only tokens for this app identifier"},
				},
				Action: tokenList,
			},
			{
				Name:      "show",
				Usage:     "show one token",
				ArgsUsage: "<token|fingerprint>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "include the secret token value"},
				},
				Action: tokenShow,
			},
			{
				Name:      "revoke",
				Aliases:   []string{"rm"},
				Usage:     "remove a token from the local store",
				ArgsUsage: "<token|fingerprint>",
				Action:    tokenRevoke,
			},
			{
				Name:      "validate",
				Usage:     "ask the gateway whether a token is valid",
				ArgsUsage: "<token>",
				Action:    tokenValidate,
			},
		},
	}
}

// localStore opens the token store under --path.
func localStore(opts *Options) (*tokenstore.FileStore, error) {
	if opts.Path == "" {
		return nil, errors.New("--path is required for local token commands")
	}
	return tokenstore.New(opts.Path), nil
}

func loadTokens(c *cli.Context) ([]domain.Token, *tokenstore.FileStore, *Options, error) {
	opts, err := ParseOptions(c)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := localStore(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	tokens, err := store.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	return tokens, store, opts, nil
}

// findToken matches ref against full tokens first, then fingerprint
// prefixes. An ambiguous prefix is an error.
func findToken(tokens []domain.Token, ref string) (domain.Token, error) {
	for _, t := range tokens {
		if t.Token == ref {
			return t, nil
		}
	}

	if len(ref) < minFingerprintPrefix {
		return domain.Token{}, domain.ErrTokenNotFound
	}

	var matches []domain.Token
	for _, t := range tokens {
		if strings.HasPrefix(token.Fingerprint(t.Token), ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Token{}, domain.ErrTokenNotFound
	case 1:
		return matches[0], nil
	default:
		return domain.Token{}, fmt.Errorf("fingerprint prefix %q matches %d tokens", ref, len(matches))
	}
}

func tokenList(c *cli.Context) error {
	tokens, _, opts, err := loadTokens(c)
	if err != nil {
		return err
	}

	app := c.String("app")
	rows := make([]TokenRow, 0, len(tokens))
	for _, t := range tokens {
		if app != "" && t.Settings.Identifier != app {
			continue
		}
		rows = append(rows, newTokenRow(t, c.Bool("reveal")))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AppName < rows[j].AppName
	})
	return render(c, opts, rows)
}

func tokenShow(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	tokens, _, opts, err := loadTokens(c)
	if err != nil {
		return err
	}
	t, err := findToken(tokens, c.Args().First())
	if err != nil {
		return err
	}
	return render(c, opts, newTokenRow(t, c.Bool("reveal")))
}

func tokenRevoke(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	tokens, store, _, err := loadTokens(c)
	if err != nil {
		return err
	}
	t, err := findToken(tokens, c.Args().First())
	if err != nil {
		return err
	}
	if _, err := store.RemoveToken(t.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "revoked %s (%s)\n", token.Fingerprint(t.Token), t.Settings.Name)
	return nil
}

// ValidateResult is printed by token validate.
type ValidateResult struct {
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Valid       bool   `json:"valid" yaml:"valid"`
}

func tokenValidate(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	hc, opts, err := client(c)
	if err != nil {
		return err
	}

	tok := c.Args().First()
	valid, err := hc.Validate(c.Context, tok)
	if err != nil {
		return err
	}
	if err := render(c, opts, ValidateResult{Fingerprint: token.Fingerprint(tok), Valid: valid}); err != nil {
		return err
	}
	if !valid {
		return cli.Exit("", 1)
	}
	return nil
}
