// Package tokenstore persists the set of app tokens granted by this node.
//
// The store is a single JSON document, <dataDir>/scuttlekit/tokens.json,
// holding an array of {token, settings} records. Writes replace the file
// atomically (temp file, fsync, rename) so a crash never leaves a truncated
// document behind; absence of the file is the only "uninitialized" state.
//
// FileStore owns persistence only. The in-memory view used to answer
// requests lives in service.Validator and is refreshed from the sequences
// returned by AddToken and RemoveToken.
package tokenstore
