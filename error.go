package nwire

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Errors returned by Container wrap one of these.  Test for them with
// errors.Is.
var (
	ErrInvalidModule            = errors.New("invalid module declaration")
	ErrInvalidProvider          = errors.New("invalid provider declaration")
	ErrModuleAlreadyRegistered  = errors.New("module is already registered")
	ErrProviderModuleMismatch   = errors.New("provider provides for a different module")
	ErrProviderModuleUnknown    = errors.New("provider's module is not registered")
	ErrCannotOverrideProvider   = errors.New("module already has a registered provider")
	ErrRegistrationsClosed      = errors.New("registrations are closed")
	ErrAlreadyReady             = errors.New("container is already ready")
	ErrNotReady                 = errors.New("container is not ready")
	ErrTamperBeforeReady        = errors.New("cannot tamper with a container until it is ready")
	ErrTamperAfterProviding     = errors.New("cannot tamper with a container after it has provided resources")
	ErrTamperTwice              = errors.New("cannot tamper with a container twice")
	ErrNotTampered              = errors.New("container was not tampered with")
	ErrNoProvider               = errors.New("module has no registered or default provider")
	ErrCircularDependency       = errors.New("circular dependency")
	ErrProvidersNotUsed         = errors.New("registered providers were not used")
	ErrModuleNotRegistered      = errors.New("resource does not belong to a registered module")
	ErrProviderResourcesBlocked = errors.New("providing provider resources is not allowed")
	ErrProviderNotInUse         = errors.New("resource belongs to a provider that is not in use")
	ErrFactoryFailed            = errors.New("provider method failed")
	ErrNotAResource             = errors.New("not a resource")
)

type detailer interface {
	Details() string
}

// DetailedError transforms errors into strings.  If the error came
// from Container then the returned string includes a multi-line
// explanation in addition to what err.Error() says.
func DetailedError(err error) string {
	var d detailer
	if errors.As(err, &d) {
		if details := d.Details(); details != "" {
			return err.Error() + "\n\n" + details
		}
	}
	return err.Error()
}

// PhaseError is returned when a Container method is called in a
// phase that does not allow it.
type PhaseError struct {
	Op    string
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PhaseError) Unwrap() error { return e.Err }

func (e *PhaseError) Details() string {
	switch e.Err {
	case ErrNotReady:
		return "Registrations are open until Ready() is called.  Call Ready() before Provide()."
	case ErrAlreadyReady:
		return "Ready() can only be called once, and once more after each Tamper()."
	case ErrRegistrationsClosed:
		return "The container is " + e.Phase + ".  Registrations can only be reopened with Tamper()."
	case ErrTamperBeforeReady:
		return "Only a ready container can be tampered with."
	case ErrTamperAfterProviding:
		return "A container can only be tampered with before it has provided any resources."
	case ErrTamperTwice:
		return "A tampered container must be restored with Restore() before it can be tampered with again."
	case ErrNotTampered:
		return "Restore() undoes a Tamper().  Either Tamper() was never called or the container was already restored."
	}
	return ""
}

// RegistrationError describes a rejected module or provider registration.
type RegistrationError struct {
	Err        error
	Module     *Module
	Provider   *Provider
	Registered *Provider // provider already registered for Module
	Modules    []*Module // modules registered at the time
	Cause      error     // declaration errors for ErrInvalidModule and ErrInvalidProvider
}

func (e *RegistrationError) Error() string {
	var what string
	switch {
	case e.Provider != nil:
		what = "register provider " + e.Provider.String()
	case e.Module != nil:
		what = "register module " + e.Module.String()
	default:
		what = "register"
	}
	msg := what + ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RegistrationError) Unwrap() error { return e.Err }

func (e *RegistrationError) Details() string {
	var b strings.Builder
	switch e.Err {
	case ErrModuleAlreadyRegistered, ErrProviderModuleUnknown:
		b.WriteString("Registered modules are:")
		for _, m := range e.Modules {
			b.WriteString("\n\t- " + m.String())
		}
		if e.Err == ErrProviderModuleUnknown {
			fmt.Fprintf(&b, "\nRegister %s alongside its module with Register(%s, %s), or "+
				"allow implicit modules with Tamper(AllowImplicitModules()).",
				e.Provider, e.Provider.Module(), e.Provider)
		}
	case ErrProviderModuleMismatch:
		fmt.Fprintf(&b, "%s provides for %s, not %s.", e.Provider, e.Provider.Module(), e.Module)
	case ErrCannotOverrideProvider:
		if e.Registered == e.Provider {
			fmt.Fprintf(&b, "%s is already registered.", e.Provider)
		} else {
			fmt.Fprintf(&b, "%s is already the provider for %s.  Overriding providers "+
				"is only allowed after Tamper(AllowOverrides()).", e.Registered, e.Module)
		}
	}
	return b.String()
}

// MissingProviderError is returned by Ready when a module that is needed,
// explicitly or through a dependency, has no provider.
type MissingProviderError struct {
	Module *Module
}

func (e *MissingProviderError) Error() string {
	return "module " + e.Module.String() + ": " + ErrNoProvider.Error()
}

func (e *MissingProviderError) Unwrap() error { return ErrNoProvider }

// CircularDependencyError lists every independent dependency loop found
// while solving the graph.
type CircularDependencyError struct {
	Loops [][]ResolutionStep
}

func (e *CircularDependencyError) Error() string {
	if len(e.Loops) == 1 {
		return ErrCircularDependency.Error() + ": " + formatLoop(e.Loops[0])
	}
	return fmt.Sprintf("%d circular dependencies", len(e.Loops))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

func (e *CircularDependencyError) Details() string {
	var b strings.Builder
	seen := make(map[*Provider]struct{})
	var providers []string
	for i, loop := range e.Loops {
		if len(e.Loops) > 1 {
			fmt.Fprintf(&b, "%d:\n", i+1)
		}
		for _, step := range loop {
			b.WriteString("\t" + step.String() + "\n")
			p := step.Method.Provider()
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				providers = append(providers, p.String())
			}
		}
	}
	b.WriteString("Providers involved:")
	for _, p := range providers {
		b.WriteString("\n\t- " + p)
	}
	return b.String()
}

func formatLoop(loop []ResolutionStep) string {
	parts := make([]string, 0, len(loop)+1)
	for _, step := range loop {
		parts = append(parts, step.Target.String())
	}
	if len(loop) > 0 {
		parts = append(parts, loop[len(loop)-1].DependsOn.String())
	}
	return strings.Join(parts, " -> ")
}

// UnusedProvidersError lists providers that were registered but that
// ended up serving no module.
type UnusedProvidersError struct {
	Providers []*Provider
}

func (e *UnusedProvidersError) Error() string {
	names := make([]string, len(e.Providers))
	for i, p := range e.Providers {
		names[i] = p.String()
	}
	return ErrProvidersNotUsed.Error() + ": " + strings.Join(names, ", ")
}

func (e *UnusedProvidersError) Unwrap() error { return ErrProvidersNotUsed }

func (e *UnusedProvidersError) Details() string {
	return "Those providers were registered, but the modules they provide for were not, " +
		"and those modules are not part of the dependency graph of any other provider in use."
}

// ProvisionError is returned by Provide.
type ProvisionError struct {
	Err      error
	Resource *Resource
	Method   *ProviderMethod
	InUse    *Provider // provider serving the resource's module
	Modules  []*Module // registered modules
	Failure  error     // error returned by the provider method
}

func (e *ProvisionError) Error() string {
	msg := "provide " + e.Resource.String() + ": " + e.Err.Error()
	if e.Failure != nil {
		msg += ": " + e.Failure.Error()
	}
	return msg
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Cause returns the error returned by the provider method, if any.  This
// makes ProvisionError compatible with errors.Cause.
func (e *ProvisionError) Cause() error {
	if e.Failure != nil {
		return e.Failure
	}
	return e.Err
}

func (e *ProvisionError) Details() string {
	var b strings.Builder
	switch e.Err {
	case ErrModuleNotRegistered:
		b.WriteString("Registered modules are:")
		for _, m := range e.Modules {
			b.WriteString("\n\t- " + m.String())
		}
	case ErrProviderNotInUse:
		fmt.Fprintf(&b, "%s provides for %s, but that module is being provided by %s.",
			e.Resource.Provider(), e.Resource.Module(), e.InUse)
	case ErrProviderResourcesBlocked:
		b.WriteString("Private and overriding resources can only be provided directly " +
			"after Ready(AllowProviderResources()).")
	case ErrFactoryFailed:
		fmt.Fprintf(&b, "Provider method %s returned an error.", e.Method)
	}
	return b.String()
}
