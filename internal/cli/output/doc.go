// Package output renders scuttlekit-cli results as table, JSON or YAML.
//
// Table output reads `json` tags for column names and honours a `table`
// tag: "-" hides a field and "wide" shows it only with --wide.
package output
