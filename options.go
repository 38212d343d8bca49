package nwire

import (
	"go.uber.org/zap"
)

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for debug output: registrations,
// provider selection, and instance construction.  The default discards
// everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log.Named("nwire")
		}
	}
}

// ReadyOption modifies Ready.
type ReadyOption func(*readyOptions)

type readyOptions struct {
	allowProviderResources bool
}

// AllowProviderResources lets Provide return private and overriding
// resources, not only module resources.
func AllowProviderResources() ReadyOption {
	return func(o *readyOptions) {
		o.allowProviderResources = true
	}
}

// TamperOption modifies Tamper.
type TamperOption func(*tamperOptions)

type tamperOptions struct {
	allowOverrides       bool
	allowImplicitModules bool
}

// AllowOverrides lets RegisterProvider replace providers that were
// registered before Tamper.
func AllowOverrides() TamperOption {
	return func(o *tamperOptions) {
		o.allowOverrides = true
	}
}

// AllowImplicitModules lets RegisterProvider accept providers for modules
// that are not registered.
func AllowImplicitModules() TamperOption {
	return func(o *tamperOptions) {
		o.allowImplicitModules = true
	}
}
