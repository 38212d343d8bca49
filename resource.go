package nwire

import (
	"fmt"
	"reflect"
)

// Resource is an addressable, typed thing that a Container can provide.
// Resources are created by Export, Private, and Override and never change
// after that.  The *Resource pointer is the resource's identity: an owner
// cannot declare two resources with the same name, so no two resources
// share type, name, and owner.
type Resource struct {
	kind      Kind
	name      string
	typ       reflect.Type
	module    *Module
	provider  *Provider // nil for module resources
	overrides *Resource // set for overriding resources only
}

// Resourcer is implemented by *Resource and by the typed Res handles.
type Resourcer interface {
	Resource() *Resource
}

var _ Resourcer = &Resource{}

// Resource returns r.  It exists so that *Resource is a Resourcer.
func (r *Resource) Resource() *Resource { return r }

func (r *Resource) Kind() Kind          { return r.kind }
func (r *Resource) Name() string        { return r.name }
func (r *Resource) Type() reflect.Type  { return r.typ }
func (r *Resource) Module() *Module     { return r.module }
func (r *Resource) Provider() *Provider { return r.provider }

// Overrides returns the module resource that an overriding resource
// replaces.  It returns nil for the other kinds.
func (r *Resource) Overrides() *Resource { return r.overrides }

func (r *Resource) String() string {
	if r == nil {
		return "<nil resource>"
	}
	switch r.kind {
	case PrivateKind:
		return fmt.Sprintf("%s.%s %s (private)", r.provider, r.name, typeName(r.typ))
	case OverridingKind:
		return fmt.Sprintf("%s.%s %s (overrides %s.%s)", r.provider, r.name, typeName(r.typ), r.module, r.name)
	default:
		return fmt.Sprintf("%s.%s %s", r.module, r.name, typeName(r.typ))
	}
}

// key is the resource under which dependency walks and the instance
// cache track r.  An overriding resource shares its key with the module
// resource it overrides since both address the same instance.
func (r *Resource) key() *Resource {
	if r.kind == OverridingKind {
		return r.overrides
	}
	return r
}

// Res is a typed handle for a Resource.  Res values are returned by
// Export, Private, and Override and allow Provide to return a T without
// a type assertion.
type Res[T any] struct {
	r *Resource
}

// Resource returns the untyped resource.  It is nil for the zero Res.
func (r Res[T]) Resource() *Resource { return r.r }

func (r Res[T]) String() string { return r.r.String() }

func resourceOf(r Resourcer) *Resource {
	if r == nil {
		return nil
	}
	return r.Resource()
}

// Dependency is one declared input of a provider method: the method's
// parameter name and the resource that fills it.
type Dependency struct {
	Name     string
	Resource *Resource
}

// Arg declares a dependency for Supply.  The name identifies the
// parameter in error messages and resolution steps.
func Arg(name string, r Resourcer) Dependency {
	return Dependency{
		Name:     name,
		Resource: resourceOf(r),
	}
}

func (d Dependency) String() string {
	return d.Name + " " + d.Resource.String()
}

// ResolutionStep is one dependency edge: Method produces Target and its
// Parameter is filled with DependsOn.
type ResolutionStep struct {
	Target    *Resource
	Method    *ProviderMethod
	Parameter string
	DependsOn *Resource
}

func (s ResolutionStep) String() string {
	return fmt.Sprintf("%s -> %s.%s(..., %s %s)",
		s.Target, s.Method.Provider(), s.Target.Name(), s.Parameter, s.DependsOn)
}
