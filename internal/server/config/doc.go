// Package config provides the configuration of scuttlekit-server.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation and path expansion
//   - gateway.go: Mapping onto gateway.Config and logger.Config
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and SCUTTLEKIT_ environment variables.
package config
