package gateway

import (
	"github.com/yndnr/scuttlekit-go/internal/core/service"
)

// Name is the extension name reported to the host.
const Name = "scuttlekit"

// Version is the extension version reported to the host and on the
// status page.
const Version = "0.0.1"

// ManifestInfo describes the capabilities the extension exposes.
type ManifestInfo struct {
	Name     string                  `json:"name" yaml:"name"`
	Version  string                  `json:"version" yaml:"version"`
	Services map[string]service.Kind `json:"services" yaml:"services"`
}

// Manifest is the static description of the extension. The service
// names match the registry built by Init.
var Manifest = ManifestInfo{
	Name:     Name,
	Version:  Version,
	Services: service.NewDefaultRegistry(nil).Manifest(),
}
