package nwire

import (
	"go.uber.org/zap"
)

// graphProvider is the sealed result of solving a registry.  It builds
// resources on demand and keeps exactly one instance per resource.
type graphProvider struct {
	log                    *zap.Logger
	modules                []*Module
	registered             map[*Module]struct{}
	providers              map[*Module]*Provider
	order                  []*Module
	implicit               map[*Module]struct{}
	defaults               map[*Module]bool
	allowProviderResources bool
	instances              map[*Resource]any
}

func newGraphProvider(s *solver, allowProviderResources bool) *graphProvider {
	return &graphProvider{
		log:                    s.log,
		modules:                s.modules,
		registered:             s.registered,
		providers:              s.selected,
		order:                  s.order,
		implicit:               s.implicit,
		defaults:               s.defaults,
		allowProviderResources: allowProviderResources,
		instances:              make(map[*Resource]any),
	}
}

func (g *graphProvider) provide(r *Resource) (any, error) {
	if _, ok := g.registered[r.module]; !ok {
		return nil, &ProvisionError{
			Err:      ErrModuleNotRegistered,
			Resource: r,
			Modules:  append([]*Module(nil), g.modules...),
		}
	}
	if r.kind != ModuleKind {
		if !g.allowProviderResources {
			return nil, &ProvisionError{Err: ErrProviderResourcesBlocked, Resource: r}
		}
		if inUse := g.providers[r.module]; r.provider != inUse {
			return nil, &ProvisionError{Err: ErrProviderNotInUse, Resource: r, InUse: inUse}
		}
	}
	return g.build(r)
}

// build resolves r and everything it depends upon.  The graph was checked
// for loops when it was solved so the recursion terminates.
func (g *graphProvider) build(r *Resource) (any, error) {
	if instance, ok := g.instances[r]; ok {
		return instance, nil
	}
	if r.kind == OverridingKind {
		return g.build(r.overrides)
	}
	inUse := g.providers[r.module]
	method, ok := inUse.Method(r)
	if !ok {
		return nil, &ProvisionError{Err: ErrProviderNotInUse, Resource: r, InUse: inUse}
	}
	args := make([]any, len(method.deps))
	for i, dep := range method.deps {
		arg, err := g.build(dep.Resource)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	instance, err := method.call(args)
	if err != nil {
		g.log.Debug("provider method failed",
			zap.Stringer("resource", r),
			zap.Stringer("method", method),
			zap.Error(err))
		return nil, &ProvisionError{Err: ErrFactoryFailed, Resource: r, Method: method, Failure: err}
	}
	g.log.Debug("resource built",
		zap.Stringer("resource", r),
		zap.Stringer("method", method))
	g.instances[r] = instance
	return instance, nil
}
