package nwire

import (
	"go.uber.org/zap"
)

// registry accumulates module and provider registrations until the
// graph is solved.  Registration order is kept so that solving is
// deterministic.
type registry struct {
	modules       []*Module
	explicit      map[*Module]struct{}
	providers     map[*Module]*Provider
	providerOrder []*Module
}

func newRegistry() *registry {
	return &registry{
		explicit:  make(map[*Module]struct{}),
		providers: make(map[*Module]*Provider),
	}
}

func (r *registry) registerModule(m *Module) error {
	if m == nil {
		return &RegistrationError{Err: ErrInvalidModule}
	}
	if m.err != nil {
		return &RegistrationError{Err: ErrInvalidModule, Module: m, Cause: m.err}
	}
	if _, ok := r.explicit[m]; ok {
		return &RegistrationError{
			Err:     ErrModuleAlreadyRegistered,
			Module:  m,
			Modules: r.registeredModules(),
		}
	}
	r.explicit[m] = struct{}{}
	r.modules = append(r.modules, m)
	return nil
}

// unregisterModule undoes the registerModule that was just done for m.
func (r *registry) unregisterModule(m *Module) {
	delete(r.explicit, m)
	for i, rm := range r.modules {
		if rm == m {
			r.modules = append(r.modules[:i:i], r.modules[i+1:]...)
			return
		}
	}
}

func (r *registry) registerProvider(p *Provider, allowOverride bool, allowImplicitModule bool) error {
	if p == nil {
		return &RegistrationError{Err: ErrInvalidProvider}
	}
	if err := p.validate(); err != nil {
		return &RegistrationError{Err: ErrInvalidProvider, Provider: p, Module: p.module, Cause: err}
	}
	m := p.module
	if _, ok := r.explicit[m]; !ok && !allowImplicitModule {
		return &RegistrationError{
			Err:      ErrProviderModuleUnknown,
			Module:   m,
			Provider: p,
			Modules:  r.registeredModules(),
		}
	}
	if registered, ok := r.providers[m]; ok {
		if !allowOverride {
			return &RegistrationError{
				Err:        ErrCannotOverrideProvider,
				Module:     m,
				Provider:   p,
				Registered: registered,
			}
		}
	} else {
		r.providerOrder = append(r.providerOrder, m)
	}
	r.providers[m] = p
	return nil
}

func (r *registry) solveGraph(log *zap.Logger, allowProviderResources bool) (*graphProvider, error) {
	return newSolver(log, r.copy()).solve(allowProviderResources)
}

func (r *registry) registeredModules() []*Module {
	return append([]*Module(nil), r.modules...)
}

// copy is shallow: modules and providers are shared, the containers
// holding them are not.
func (r *registry) copy() *registry {
	n := &registry{
		modules:       append([]*Module(nil), r.modules...),
		explicit:      make(map[*Module]struct{}, len(r.explicit)),
		providers:     make(map[*Module]*Provider, len(r.providers)),
		providerOrder: append([]*Module(nil), r.providerOrder...),
	}
	for m := range r.explicit {
		n.explicit[m] = struct{}{}
	}
	for m, p := range r.providers {
		n.providers[m] = p
	}
	return n
}
