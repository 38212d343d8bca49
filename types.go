package nwire

// Resources and containers are classified with small enums.  This file
// defines them along with the reflect types the package compares against.

import (
	"reflect"
)

// Kind identifies which of the three resource variants a Resource is.
type Kind int

const (
	// ModuleKind resources are declared by a Module and are the public
	// surface that a Container provides.
	ModuleKind Kind = iota // module
	// PrivateKind resources belong to a single Provider. They are not
	// visible through the Module and can only be provided directly when
	// the container allows provider resources.
	PrivateKind // private
	// OverridingKind resources belong to a single Provider and narrow the
	// type of one of the module's resources.
	OverridingKind // overriding
)

func (k Kind) String() string {
	switch k {
	case ModuleKind:
		return "module"
	case PrivateKind:
		return "private"
	case OverridingKind:
		return "overriding"
	default:
		return "unknown"
	}
}

type phase int

const (
	registering phase = iota // registering
	ready                    // ready
	providing                // providing
)

func (p phase) String() string {
	switch p {
	case registering:
		return "registering"
	case ready:
		return "ready"
	case providing:
		return "providing"
	default:
		return "unknown"
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
