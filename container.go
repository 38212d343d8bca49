package nwire

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Container wires modules to providers and provides module resources.
//
// A container goes through two phases.  While registering, modules and
// providers are added with Register and RegisterProvider.  Ready closes
// registrations, picks a provider for every module that is needed, and
// checks the dependency graph.  From then on, Provide builds resources,
// each at most once.
//
// Tamper reopens a ready container that has not yet provided anything
// so that some providers can be replaced, typically in tests.  Restore
// undoes everything done after Tamper.
//
// A Container is not safe for concurrent use.
type Container struct {
	log                  *zap.Logger
	phase                phase
	registry             *registry
	graph                *graphProvider
	checkpoint           *checkpoint
	allowOverrides       bool
	allowImplicitModules bool
}

type checkpoint struct {
	registry *registry
	graph    *graphProvider
}

// NewContainer creates an empty container that is registering.
func NewContainer(opts ...Option) *Container {
	c := &Container{
		log:      zap.NewNop(),
		phase:    registering,
		registry: newRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a module to the container.  If provider is not nil, it
// is registered as the module's provider.  Otherwise the module's
// provider is set with RegisterProvider or is its default provider.
//
// A module can only be registered once.  When Register fails, neither the
// module nor the provider is registered.
func (c *Container) Register(module *Module, provider *Provider) error {
	if c.phase != registering {
		return c.phaseError("register", ErrRegistrationsClosed)
	}
	if provider != nil && module != nil && provider.module != module {
		return &RegistrationError{Err: ErrProviderModuleMismatch, Module: module, Provider: provider}
	}
	if err := c.registry.registerModule(module); err != nil {
		return err
	}
	if provider != nil {
		if err := c.registerProvider(provider, false); err != nil {
			c.registry.unregisterModule(module)
			return err
		}
	}
	c.log.Debug("module registered", zap.Stringer("module", module))
	return nil
}

// RegisterProvider sets the provider for its module.  The module must
// already be registered unless the container was tampered with
// AllowImplicitModules.  Replacing a registered provider is only
// allowed after Tamper with AllowOverrides.
func (c *Container) RegisterProvider(provider *Provider) error {
	if c.phase != registering {
		return c.phaseError("register provider", ErrRegistrationsClosed)
	}
	return c.registerProvider(provider, c.allowImplicitModules)
}

func (c *Container) registerProvider(provider *Provider, allowImplicitModule bool) error {
	err := c.registry.registerProvider(provider, c.allowOverrides, allowImplicitModule)
	if err != nil {
		return err
	}
	c.log.Debug("provider registered",
		zap.Stringer("provider", provider),
		zap.Stringer("module", provider.module))
	return nil
}

// Ready closes registrations.  Every registered module, and every module
// that their providers depend upon, must have a registered or default
// provider, and no resource may depend on itself, directly or not.  When
// Ready fails, the container stays open for registrations.
func (c *Container) Ready(opts ...ReadyOption) error {
	if c.phase != registering {
		return c.phaseError("ready", ErrAlreadyReady)
	}
	var o readyOptions
	for _, opt := range opts {
		opt(&o)
	}
	graph, err := c.registry.solveGraph(c.log, o.allowProviderResources)
	if err != nil {
		c.log.Debug("container not ready", zap.Error(err))
		return err
	}
	c.graph = graph
	c.phase = ready
	c.log.Debug("container ready",
		zap.Int("modules", len(graph.order)),
		zap.Bool("allowProviderResources", o.allowProviderResources))
	return nil
}

// Provide returns the instance of r, building it and its dependencies if
// needed.  The container must be ready.  Each resource is built at most
// once; later calls return the same instance.
//
// Only resources of explicitly registered modules can be provided.
// Private and overriding resources can only be provided if Ready was
// called with AllowProviderResources.
func (c *Container) Provide(r Resourcer) (any, error) {
	if c.phase == registering {
		return nil, c.phaseError("provide", ErrNotReady)
	}
	res := resourceOf(r)
	if res == nil {
		return nil, errors.Wrapf(ErrNotAResource, "provide %T", r)
	}
	if c.phase != providing {
		c.phase = providing
		// instances exist from now on, so registrations cannot come back
		c.registry = nil
	}
	return c.graph.provide(res)
}

// Provide is Container.Provide for typed resources.
func Provide[T any](c *Container, r Res[T]) (T, error) {
	var zero T
	v, err := c.Provide(r)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("provide %s: instance is %T, not %s", r, v, typeName(typeOf[T]()))
	}
	return t, nil
}

// MustProvide is Provide but panics on error.
func MustProvide[T any](c *Container, r Res[T]) T {
	t, err := Provide(c, r)
	if err != nil {
		panic(DetailedError(err))
	}
	return t
}

// Tamper reopens registrations on a ready container.  Tamper is meant for
// tests and other alternative setups: register replacement providers,
// call Ready again, use the container, and finally Restore it.
//
// With AllowOverrides, RegisterProvider can replace providers registered
// before.  Default providers can always be replaced.  With
// AllowImplicitModules, RegisterProvider accepts providers for modules
// that were not registered; those modules must then be needed by some
// provider in use or Ready fails.
//
// A container can only be tampered with before it has provided any
// resource, and only once until it is restored.
func (c *Container) Tamper(opts ...TamperOption) error {
	switch {
	case c.phase == providing:
		return c.phaseError("tamper", ErrTamperAfterProviding)
	case c.phase == registering:
		return c.phaseError("tamper", ErrTamperBeforeReady)
	case c.checkpoint != nil:
		return c.phaseError("tamper", ErrTamperTwice)
	}
	var o tamperOptions
	for _, opt := range opts {
		opt(&o)
	}
	c.checkpoint = &checkpoint{
		registry: c.registry,
		graph:    c.graph,
	}
	c.registry = c.registry.copy()
	c.graph = nil
	c.phase = registering
	c.allowOverrides = o.allowOverrides
	c.allowImplicitModules = o.allowImplicitModules
	c.log.Debug("container tampered",
		zap.Bool("allowOverrides", o.allowOverrides),
		zap.Bool("allowImplicitModules", o.allowImplicitModules))
	return nil
}

// Restore returns a tampered container to its state before Tamper.  The
// container is ready again and instances built since Tamper are dropped.
func (c *Container) Restore() error {
	if c.checkpoint == nil {
		return c.phaseError("restore", ErrNotTampered)
	}
	c.registry = c.checkpoint.registry
	c.graph = c.checkpoint.graph
	c.checkpoint = nil
	c.phase = ready
	c.allowOverrides = false
	c.allowImplicitModules = false
	c.log.Debug("container restored")
	return nil
}

// Resolution describes which provider serves each module in a ready
// container.
type Resolution struct {
	Selections []Selection
}

// Selection is the provider chosen for one module.
type Selection struct {
	Module   *Module
	Provider *Provider
	// Implicit is true for modules that were not registered but are
	// needed by other providers.
	Implicit bool
	// Default is true when the module's default provider was used.
	Default bool
}

// Provider returns the provider chosen for m, if m was resolved.
func (r *Resolution) Provider(m *Module) (*Provider, bool) {
	for _, s := range r.Selections {
		if s.Module == m {
			return s.Provider, true
		}
	}
	return nil, false
}

// Resolved reports the providers selected by Ready, in the order they
// were selected.
func (c *Container) Resolved() (*Resolution, error) {
	if c.graph == nil {
		return nil, c.phaseError("resolved", ErrNotReady)
	}
	res := &Resolution{Selections: make([]Selection, len(c.graph.order))}
	for i, m := range c.graph.order {
		p := c.graph.providers[m]
		_, implicit := c.graph.implicit[m]
		res.Selections[i] = Selection{
			Module:   m,
			Provider: p,
			Implicit: implicit,
			Default:  c.graph.defaults[m],
		}
	}
	return res, nil
}

func (c *Container) phaseError(op string, err error) error {
	return &PhaseError{Op: op, Phase: c.phase.String(), Err: err}
}
