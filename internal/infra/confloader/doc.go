// Package confloader loads configuration and watches files for changes.
//
// Loader layers configuration with koanf. Later sources override earlier:
//
//  1. Defaults already set on the target struct
//  2. YAML configuration file
//  3. Environment variables (SCUTTLEKIT_ prefix, "__" between sections)
//  4. Maps supplied by the caller, typically parsed flags
//
// Watcher wraps fsnotify. It watches the parent directory of each file so
// that atomic rename-over writes are seen, and only reports events for the
// files it was asked to watch.
package confloader
