// Package domain defines the core domain models for ScuttleKit.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultAppVersion is used when a registration does not carry a version.
const DefaultAppVersion = "1.0.0"

// validate is shared; validator.Validate caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// AccessType is the per-message-type access an app asks for at registration.
type AccessType struct {
	Owner     bool `json:"owner"`
	Read      bool `json:"read"`
	Write     bool `json:"write"`
	Encrypted bool `json:"encrypted"`
}

// Level collapses the requested flags into a single access level.
// Owner and write both map to write. ok is false when nothing was requested.
func (a AccessType) Level() (Access, bool) {
	switch {
	case a.Owner || a.Write:
		return AccessWrite, true
	case a.Read:
		return AccessRead, true
	default:
		return "", false
	}
}

// RegistrationParams is what an app submits to POST /register.
type RegistrationParams struct {
	AppName      string                `json:"appName" validate:"required,max=128"`
	AppID        string                `json:"appId" validate:"required,max=256"`
	Version      string                `json:"version,omitempty" validate:"omitempty,max=64"`
	Author       string                `json:"author,omitempty" validate:"omitempty,max=256"`
	URL          string                `json:"url,omitempty" validate:"omitempty,url"`
	Domain       string                `json:"domain,omitempty" validate:"omitempty,hostname_rfc1123"`
	Port         string                `json:"port,omitempty" validate:"omitempty,numeric"`
	MessageTypes map[string]AccessType `json:"messageTypes" validate:"required,min=1,dive,keys,required,max=128,endkeys"`
}

// Validate checks the parameters and returns ErrInvalidRegistration with
// the offending fields in Details.
func (p *RegistrationParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return ErrInvalidRegistration.WithDetails(strings.Join(fields, ", "))
		}
		return ErrInvalidRegistration.WithCause(err)
	}

	for msgType, access := range p.MessageTypes {
		if _, ok := access.Level(); ok {
			continue
		}
		return ErrInvalidRegistration.WithDetails("message type " + msgType + " requests no access")
	}
	return nil
}

// Settings converts the parameters into the AppSettings granted with the token.
func (p *RegistrationParams) Settings() AppSettings {
	version := p.Version
	if version == "" {
		version = DefaultAppVersion
	}

	types := make(map[string]Access, len(p.MessageTypes))
	for msgType, access := range p.MessageTypes {
		if level, ok := access.Level(); ok {
			types[msgType] = level
		}
	}

	return AppSettings{
		Name:       p.AppName,
		Identifier: p.AppID,
		Version:    version,
		Types:      types,
	}
}
