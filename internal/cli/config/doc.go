// Package config loads and saves ~/.scuttlekit/cli.yaml, the defaults
// scuttlekit-cli uses when --server, --path or --output are not given.
package config
