package nwire

import (
	"go.uber.org/zap"
)

// solver turns a registry into a graphProvider.  It picks a provider for
// every module that is needed, directly or through dependencies, and
// then checks the resulting resource graph for loops.
type solver struct {
	log        *zap.Logger
	modules    []*Module
	registered map[*Module]struct{}
	selected   map[*Module]*Provider
	unused     map[*Module]*Provider
	unusedList []*Module
	implicit   map[*Module]struct{}
	defaults   map[*Module]bool
	order      []*Module // in the order providers were selected
}

func newSolver(log *zap.Logger, r *registry) *solver {
	return &solver{
		log:        log,
		modules:    r.modules,
		registered: r.explicit,
		selected:   make(map[*Module]*Provider),
		unused:     r.providers,
		unusedList: r.providerOrder,
		implicit:   make(map[*Module]struct{}),
		defaults:   make(map[*Module]bool),
	}
}

func (s *solver) solve(allowProviderResources bool) (*graphProvider, error) {
	queue := append([]*Module(nil), s.modules...)
	queued := make(map[*Module]struct{}, len(queue))
	for _, m := range queue {
		queued[m] = struct{}{}
	}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		p, err := s.providerFor(m)
		if err != nil {
			return nil, err
		}
		s.selected[m] = p
		s.order = append(s.order, m)
		for _, pm := range p.Methods() {
			for _, dep := range pm.deps {
				dm := dep.Resource.module
				if _, ok := queued[dm]; ok {
					continue
				}
				queued[dm] = struct{}{}
				s.implicit[dm] = struct{}{}
				queue = append(queue, dm)
				s.log.Debug("implicit module needed",
					zap.Stringer("module", dm),
					zap.Stringer("by", pm))
			}
		}
	}

	if loops := s.findCycles(); len(loops) > 0 {
		err := &CircularDependencyError{Loops: loops}
		s.log.Debug("circular dependencies", zap.Int("loops", len(loops)), zap.Error(err))
		return nil, err
	}

	if len(s.unused) > 0 {
		var unused []*Provider
		for _, m := range s.unusedList {
			if p, ok := s.unused[m]; ok {
				unused = append(unused, p)
			}
		}
		return nil, &UnusedProvidersError{Providers: unused}
	}

	return newGraphProvider(s, allowProviderResources), nil
}

// providerFor picks the explicitly registered provider for m, falling
// back to its default provider.
func (s *solver) providerFor(m *Module) (*Provider, error) {
	if p, ok := s.unused[m]; ok {
		delete(s.unused, m)
		s.log.Debug("module resolved", zap.Stringer("module", m), zap.Stringer("provider", p), zap.String("source", "registered"))
		return p, nil
	}
	p := m.DefaultProvider()
	if p == nil {
		return nil, &MissingProviderError{Module: m}
	}
	if err := p.validate(); err != nil {
		return nil, &RegistrationError{Err: ErrInvalidProvider, Module: m, Provider: p, Cause: err}
	}
	s.defaults[m] = true
	s.log.Debug("module resolved", zap.Stringer("module", m), zap.Stringer("provider", p), zap.String("source", "default"))
	return p, nil
}

// methodFor finds the method that builds r with the selected providers.
func (s *solver) methodFor(r *Resource) *ProviderMethod {
	p := r.provider
	if r.kind == ModuleKind {
		p = s.selected[r.module]
	}
	pm, _ := p.Method(r)
	return pm
}

// cycleFinder is a depth first walk over resource dependencies.  Every
// edge that points back into the current stack closes exactly one loop,
// so each loop is reported once no matter where the walk started.
type cycleFinder struct {
	s       *solver
	path    []ResolutionStep
	inStack map[*Resource]int // resource key -> depth
	solved  map[*Resource]struct{}
	loops   [][]ResolutionStep
}

func (s *solver) findCycles() [][]ResolutionStep {
	f := &cycleFinder{
		s:       s,
		inStack: make(map[*Resource]int),
		solved:  make(map[*Resource]struct{}),
	}
	for _, m := range s.order {
		for _, r := range m.resources {
			f.visit(r)
		}
		// private resources nothing depends on can still be provided
		for _, r := range s.selected[m].resources {
			f.visit(r)
		}
	}
	return f.loops
}

func (f *cycleFinder) visit(target *Resource) {
	key := target.key()
	if _, ok := f.solved[key]; ok {
		return
	}
	method := f.s.methodFor(target)
	if method == nil {
		return
	}
	depth := len(f.path)
	f.inStack[key] = depth
	for _, dep := range method.deps {
		step := ResolutionStep{
			Target:    target,
			Method:    method,
			Parameter: dep.Name,
			DependsOn: dep.Resource,
		}
		if at, ok := f.inStack[dep.Resource.key()]; ok {
			loop := make([]ResolutionStep, 0, len(f.path)-at+1)
			loop = append(loop, f.path[at:]...)
			loop = append(loop, step)
			f.loops = append(f.loops, loop)
			continue
		}
		f.path = append(f.path, step)
		f.visit(dep.Resource)
		f.path = f.path[:depth]
	}
	delete(f.inStack, key)
	f.solved[key] = struct{}{}
}
