// Package command defines the scuttlekit-cli command tree.
//
// Token commands (list, show, revoke) edit tokens.json under --path
// directly; a running gateway with watch_tokens enabled picks the change
// up. The app, validate and status commands talk to --server over HTTP.
package command
