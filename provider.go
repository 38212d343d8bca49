package nwire

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Provider implements a Module.  It supplies one factory, a
// ProviderMethod, for each of the module's resources and for each of its
// own private and overriding resources.
//
//	var StorageFromEnv = nwire.NewProvider("StorageFromEnv", Storage)
//
//	func init() {
//		nwire.Supply(StorageFromEnv, StorageDSN, func() string {
//			return os.Getenv("DSN")
//		})
//		nwire.Supply(StorageFromEnv, StorageDB, sqlOpen, nwire.Arg("dsn", StorageDSN))
//	}
//
// Like Module, declaration mistakes are recorded rather than panicking.
// They are reported by Err and when the provider is registered.
type Provider struct {
	name      string
	module    *Module
	base      *Provider
	resources []*Resource
	byName    map[string]*Resource
	methods   map[*Resource]*ProviderMethod
	order     []*Resource
	err       error
}

// ProviderMethod is the factory for one resource plus the ordered list
// of resources it needs as arguments.
type ProviderMethod struct {
	provider     *Provider
	target       *Resource // module resource for overriding resources
	produces     *Resource // resource given to Supply
	deps         []Dependency
	fn           reflect.Value
	returnsError bool
	inherited    bool
}

// NewProvider creates a provider for module.  Once a provider exists for
// a module, no more resources can be exported from that module.
func NewProvider(name string, module *Module) *Provider {
	p := newProvider(name, module)
	if module == nil {
		p.fail(errors.New("provider has no module"))
	}
	return p
}

func newProvider(name string, module *Module) *Provider {
	p := &Provider{
		name:    name,
		module:  module,
		byName:  make(map[string]*Resource),
		methods: make(map[*Resource]*ProviderMethod),
	}
	if name == "" {
		p.fail(errors.New("provider name cannot be empty"))
	}
	if module != nil {
		module.closed = true
	}
	return p
}

// Extend creates a provider for the same module as base.  The new provider
// starts with copies of all of base's resources and methods.  Its own
// calls to Supply replace inherited methods.  Changes made to base after
// Extend is called are not seen by the new provider.
func Extend(name string, base *Provider) *Provider {
	if base == nil {
		p := newProvider(name, nil)
		p.fail(errors.New("cannot extend a nil provider"))
		return p
	}
	p := newProvider(name, base.module)
	p.base = base
	if base.err != nil {
		p.err = multierr.Append(p.err, base.err)
	}
	rebound := make(map[*Resource]*Resource, len(base.resources))
	for _, r := range base.resources {
		nr := &Resource{
			kind:      r.kind,
			name:      r.name,
			typ:       r.typ,
			module:    r.module,
			provider:  p,
			overrides: r.overrides,
		}
		p.resources = append(p.resources, nr)
		p.byName[nr.name] = nr
		rebound[r] = nr
	}
	rebind := func(r *Resource) *Resource {
		if nr, ok := rebound[r]; ok {
			return nr
		}
		return r
	}
	for _, target := range base.order {
		bm := base.methods[target]
		deps := make([]Dependency, len(bm.deps))
		for i, dep := range bm.deps {
			deps[i] = Dependency{Name: dep.Name, Resource: rebind(dep.Resource)}
		}
		t := rebind(target)
		p.methods[t] = &ProviderMethod{
			provider:     p,
			target:       t,
			produces:     rebind(bm.produces),
			deps:         deps,
			fn:           bm.fn,
			returnsError: bm.returnsError,
			inherited:    true,
		}
		p.order = append(p.order, t)
	}
	return p
}

// Private declares a resource of type T that belongs to p only.  Its name
// cannot be the name of one of the module's resources.
func Private[T any](p *Provider, name string) Res[T] {
	return Res[T]{r: PrivateType(p, name, typeOf[T]())}
}

// PrivateType is Private for a type known only at runtime.
func PrivateType(p *Provider, name string, t reflect.Type) *Resource {
	r := &Resource{
		kind:     PrivateKind,
		name:     name,
		typ:      t,
		provider: p,
	}
	if p == nil {
		return r
	}
	r.module = p.module
	switch {
	case name == "":
		p.fail(errors.New("resource name cannot be empty"))
	case t == nil:
		p.fail(errors.Errorf("private resource %s has no type", name))
	case p.byName[name] != nil:
		p.fail(errors.Errorf("resource %s is declared twice", name))
	case p.module != nil && p.module.byName[name] != nil:
		p.fail(errors.Errorf("private resource %s occludes module resource %s", name, p.module.byName[name]))
	default:
		p.resources = append(p.resources, r)
		p.byName[name] = r
	}
	return r
}

// Override declares that p provides the module resource base as the more
// specific type T.  T must be assignable to base's type.  Providing either
// the overriding resource or base yields the same instance.
func Override[T any](p *Provider, base Resourcer) Res[T] {
	return Res[T]{r: OverrideType(p, base, typeOf[T]())}
}

// OverrideType is Override for a type known only at runtime.
func OverrideType(p *Provider, base Resourcer, t reflect.Type) *Resource {
	b := resourceOf(base)
	r := &Resource{
		kind:      OverridingKind,
		typ:       t,
		provider:  p,
		overrides: b,
	}
	if p == nil {
		return r
	}
	r.module = p.module
	if b == nil {
		p.fail(errors.New("overriding resource needs a resource to override"))
		return r
	}
	r.name = b.name
	switch {
	case b.kind != ModuleKind:
		p.fail(errors.Errorf("%s cannot be overridden, only module resources can", b))
	case b.module != p.module:
		p.fail(errors.Errorf("cannot override %s, it belongs to %s, not %s", b, b.module, p.module))
	case t == nil:
		p.fail(errors.Errorf("overriding resource %s has no type", b.name))
	case !t.AssignableTo(b.typ):
		p.fail(errors.Errorf("cannot override %s with %s, it is not assignable to %s", b, typeName(t), typeName(b.typ)))
	case p.byName[b.name] != nil:
		p.fail(errors.Errorf("resource %s is declared twice", b.name))
	case p.methods[b] != nil && !p.methods[b].inherited:
		p.fail(errors.Errorf("cannot override %s, it is already supplied", b))
	default:
		p.resources = append(p.resources, r)
		p.byName[r.name] = r
		// an inherited method builds the base type, the override needs its own
		p.dropMethod(b)
	}
	return r
}

func (p *Provider) dropMethod(target *Resource) {
	if _, ok := p.methods[target]; !ok {
		return
	}
	delete(p.methods, target)
	for i, r := range p.order {
		if r == target {
			p.order = append(p.order[:i:i], p.order[i+1:]...)
			return
		}
	}
}

// Supply sets the provider method for target.  Target is one of the
// module's resources or one of p's own resources.  Factory must be a
// function that takes one parameter per dependency, in order, and returns
// a value assignable to target's type, optionally followed by an error.
//
//	nwire.Supply(p, StorageDB, func(dsn string) (*sql.DB, error) {
//		return sql.Open("postgres", dsn)
//	}, nwire.Arg("dsn", StorageDSN))
//
// Dependencies can be resources of any module and p's own private or
// overriding resources.  Supply replaces methods inherited through
// Extend, but not methods supplied directly to p.
func Supply(p *Provider, target Resourcer, factory any, deps ...Dependency) {
	if p == nil {
		return
	}
	t := resourceOf(target)
	if t == nil {
		p.fail(errors.New("supply called without a resource"))
		return
	}
	if t.typ == nil {
		p.fail(errors.Errorf("cannot supply %s, it has no type", t))
		return
	}
	var bound *Resource
	switch t.kind {
	case ModuleKind:
		if p.module == nil || !p.module.Contains(t) {
			p.fail(errors.Errorf("cannot supply %s, it is not a resource of %s", t, p.module))
			return
		}
		if o := p.byName[t.name]; o != nil {
			p.fail(errors.Errorf("cannot supply %s, %s overrides it", t, o))
			return
		}
		bound = t
	default:
		if t.provider != p || p.byName[t.name] != t {
			p.fail(errors.Errorf("cannot supply %s, it is not a resource of %s", t, p))
			return
		}
		bound = t.key()
	}
	if err := p.checkDependencies(t, deps); err != nil {
		p.fail(err)
		return
	}
	fn, returnsError, err := characterizeFactory(t, factory, deps)
	if err != nil {
		p.fail(err)
		return
	}
	if existing, ok := p.methods[bound]; ok {
		if !existing.inherited {
			p.fail(errors.Errorf("%s is supplied twice", t))
			return
		}
	} else {
		p.order = append(p.order, bound)
	}
	p.methods[bound] = &ProviderMethod{
		provider:     p,
		target:       bound,
		produces:     t,
		deps:         append([]Dependency(nil), deps...),
		fn:           fn,
		returnsError: returnsError,
	}
}

func (p *Provider) checkDependencies(target *Resource, deps []Dependency) error {
	names := make(map[string]struct{}, len(deps))
	for i, dep := range deps {
		if dep.Name == "" {
			return errors.Errorf("dependency %d of %s has no name", i+1, target)
		}
		if _, dup := names[dep.Name]; dup {
			return errors.Errorf("dependency %s of %s is declared twice", dep.Name, target)
		}
		names[dep.Name] = struct{}{}
		r := dep.Resource
		if r == nil {
			return errors.Errorf("dependency %s of %s has no resource", dep.Name, target)
		}
		if r.module == nil {
			return errors.Errorf("dependency %s of %s is %s which has no module", dep.Name, target, r)
		}
		if r.typ == nil {
			return errors.Errorf("dependency %s of %s is %s which has no type", dep.Name, target, r)
		}
		if r.kind != ModuleKind && r.provider != p {
			if p.base != nil && r.provider == p.base {
				return errors.Errorf("dependency %s of %s is %s which belongs to the base provider %s; use the resource from %s",
					dep.Name, target, r, p.base, p)
			}
			return errors.Errorf("dependency %s of %s is %s which belongs to another provider", dep.Name, target, r)
		}
	}
	return nil
}

func (p *Provider) fail(err error) {
	p.err = multierr.Append(p.err, errors.Wrap(err, p.name))
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) String() string {
	if p == nil {
		return "<nil provider>"
	}
	return p.name
}

// Module returns the module that p implements.
func (p *Provider) Module() *Module { return p.module }

// Base returns the provider that p was created from with Extend, if any.
func (p *Provider) Base() *Provider { return p.base }

// Resources returns p's private and overriding resources in declaration
// order.
func (p *Provider) Resources() []*Resource {
	return append([]*Resource(nil), p.resources...)
}

// Lookup finds one of p's own resources by name.
func (p *Provider) Lookup(name string) (*Resource, bool) {
	r, ok := p.byName[name]
	return r, ok
}

// Method returns the provider method responsible for r.  For overriding
// resources, that is the method bound to the module resource they
// override.
func (p *Provider) Method(r Resourcer) (*ProviderMethod, bool) {
	res := resourceOf(r)
	if res == nil {
		return nil, false
	}
	if res.kind == ModuleKind {
		if res.module != p.module {
			return nil, false
		}
	} else if res.provider != p {
		return nil, false
	}
	pm, ok := p.methods[res.key()]
	return pm, ok
}

// Methods returns all of p's provider methods.
func (p *Provider) Methods() []*ProviderMethod {
	methods := make([]*ProviderMethod, len(p.order))
	for i, r := range p.order {
		methods[i] = p.methods[r]
	}
	return methods
}

// Err returns the declaration errors recorded so far, if any.
func (p *Provider) Err() error { return p.err }

// validate checks that p is complete: that there is a method for each of
// its own resources and for each of its module's resources.
func (p *Provider) validate() error {
	err := p.err
	if p.module == nil {
		return err
	}
	if p.module.err != nil {
		err = multierr.Append(err, p.module.err)
	}
	for _, r := range p.resources {
		if _, ok := p.methods[r.key()]; !ok {
			err = multierr.Append(err, errors.Errorf("%s: missing provider method for %s", p.name, r))
		}
	}
	for _, r := range p.module.resources {
		if _, overridden := p.byName[r.name]; overridden {
			continue
		}
		if _, ok := p.methods[r]; !ok {
			err = multierr.Append(err, errors.Errorf("%s: missing provider method for %s", p.name, r))
		}
	}
	return err
}

func (pm *ProviderMethod) Provider() *Provider { return pm.provider }

// Target returns the resource that the method is bound to.  For methods
// that produce an overriding resource, it is the module resource being
// overridden since that is how other resources address it.
func (pm *ProviderMethod) Target() *Resource { return pm.target }

// Produces returns the resource given to Supply.
func (pm *ProviderMethod) Produces() *Resource { return pm.produces }

// Dependencies returns the declared (parameter name, resource) pairs.
func (pm *ProviderMethod) Dependencies() []Dependency {
	return append([]Dependency(nil), pm.deps...)
}

// Factory returns the function given to Supply.
func (pm *ProviderMethod) Factory() any { return pm.fn.Interface() }

func (pm *ProviderMethod) String() string {
	names := make([]string, len(pm.deps))
	for i, dep := range pm.deps {
		names[i] = dep.Name
	}
	return pm.provider.String() + "." + pm.target.name + "(" + strings.Join(names, ", ") + ")"
}

// call invokes the factory with already-built dependencies.
func (pm *ProviderMethod) call(args []any) (any, error) {
	ft := pm.fn.Type()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(ft.In(i))
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	out := pm.fn.Call(in)
	if pm.returnsError && !out[1].IsNil() {
		//nolint:errcheck // we trust the type
		return nil, out[1].Interface().(error)
	}
	// store as the declared type so that Provide[T] can assert it
	v := reflect.New(pm.produces.typ).Elem()
	v.Set(out[0])
	return v.Interface(), nil
}
