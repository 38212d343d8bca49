package nwire

import (
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Module is a named interface: a fixed set of resources that some
// Provider implements.  Modules are meant to be declared once, as
// package-level variables, along with their resources:
//
//	var Storage = nwire.NewModule("Storage")
//	var StorageDSN = nwire.Export[string](Storage, "dsn")
//	var StorageDB = nwire.Export[*sql.DB](Storage, "db")
//
// Declaration mistakes do not panic.  They are recorded on the module and
// reported by Err and by Container.Register.
type Module struct {
	name            string
	resources       []*Resource
	byName          map[string]*Resource
	defaultProvider *Provider
	closed          bool
	err             error
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	m := &Module{
		name:   name,
		byName: make(map[string]*Resource),
	}
	if name == "" {
		m.fail(errors.New("module name cannot be empty"))
	}
	return m
}

// Export declares a module resource of type T.
func Export[T any](m *Module, name string) Res[T] {
	return Res[T]{r: ExportType(m, name, typeOf[T]())}
}

// ExportType declares a module resource of type t.  Export is usually
// more convenient.
//
// A module's resources must all be declared before any Provider is
// created for the module.
func ExportType(m *Module, name string, t reflect.Type) *Resource {
	r := &Resource{
		kind:   ModuleKind,
		name:   name,
		typ:    t,
		module: m,
	}
	switch {
	case m == nil:
		// nothing to record it on, Supply and Register will catch it
	case name == "":
		m.fail(errors.New("resource name cannot be empty"))
	case t == nil:
		m.fail(errors.Errorf("resource %s has no type", name))
	case m.byName[name] != nil:
		m.fail(errors.Errorf("resource %s is declared twice", name))
	case m.closed:
		m.fail(errors.Errorf("resource %s declared after a provider was created for the module", name))
	default:
		m.resources = append(m.resources, r)
		m.byName[name] = r
	}
	return r
}

func (m *Module) fail(err error) {
	m.err = multierr.Append(m.err, errors.Wrap(err, m.name))
}

func (m *Module) Name() string { return m.name }

func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	return m.name
}

// Resources returns the module's resources in declaration order.
func (m *Module) Resources() []*Resource {
	return append([]*Resource(nil), m.resources...)
}

// Lookup finds a module resource by name.
func (m *Module) Lookup(name string) (*Resource, bool) {
	r, ok := m.byName[name]
	return r, ok
}

// Contains reports if r is one of the module's own resources.  Private
// and overriding resources are never contained in a module.
func (m *Module) Contains(r Resourcer) bool {
	res := resourceOf(r)
	if res == nil || res.kind != ModuleKind {
		return false
	}
	return m.byName[res.name] == res
}

// Err returns the declaration errors recorded so far, if any.
func (m *Module) Err() error { return m.err }

// DefaultProvider returns the provider used for the module when no
// provider is registered for it explicitly.
func (m *Module) DefaultProvider() *Provider { return m.defaultProvider }

// SetDefaultProvider sets the provider used when a container needs the
// module but nothing was registered for it.  It can be called more than
// once.  Containers read the default provider when Ready is called, so
// changing it afterwards does not affect containers that are already
// ready.
func (m *Module) SetDefaultProvider(p *Provider) error {
	if p == nil {
		return errors.Wrapf(ErrInvalidProvider, "default provider for %s cannot be nil", m)
	}
	if p.module != m {
		return errors.Wrapf(ErrProviderModuleMismatch, "default provider %s provides for %s, not %s", p, p.module, m)
	}
	m.defaultProvider = p
	return nil
}
