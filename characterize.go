package nwire

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// This file checks that a factory passed to Supply can be called with
// the declared dependencies and produces the target resource.

type testArgs struct {
	t      reflect.Type
	target *Resource
	deps   []Dependency
}

type predicateType struct {
	message string
	test    func(a testArgs) bool
}

type predicates []predicateType

// predicate tests a factory.  The message is used when the factory
// fails that test so the message should be the opposite of what the
// factory does.
func predicate(message string, test func(a testArgs) bool) predicateType {
	return predicateType{
		message: message,
		test:    test,
	}
}

var (
	isFunc        = predicate("is not a function", func(a testArgs) bool { return a.t.Kind() == reflect.Func })
	notVariadic   = predicate("is variadic", func(a testArgs) bool { return !a.t.IsVariadic() })
	inputsMatch   = predicate("does not take exactly one parameter per declared dependency", func(a testArgs) bool { return a.t.NumIn() == len(a.deps) })
	hasOutput     = predicate("does not return a value", func(a testArgs) bool { return a.t.NumOut() > 0 })
	fewOutputs    = predicate("returns more than a value and an error", func(a testArgs) bool { return a.t.NumOut() <= 2 })
	secondIsError = predicate("returns a second value that is not error", func(a testArgs) bool {
		return a.t.NumOut() != 2 || a.t.Out(1) == errorType
	})
	outputAssignable = predicate("returns a type that cannot be assigned to the resource", func(a testArgs) bool {
		return a.t.Out(0).AssignableTo(a.target.typ)
	})
)

var factoryChecks = predicates{
	isFunc,
	notVariadic,
	inputsMatch,
	hasOutput,
	fewOutputs,
	secondIsError,
	outputAssignable,
}

func (p predicates) check(a testArgs) error {
	for _, pred := range p {
		if !pred.test(a) {
			return errors.New(pred.message)
		}
	}
	return nil
}

// characterizeFactory validates factory as the provider method for
// target.  It returns the callable value and whether the factory's
// second return value is an error.
func characterizeFactory(target *Resource, factory any, deps []Dependency) (reflect.Value, bool, error) {
	v := reflect.ValueOf(factory)
	if !v.IsValid() || (v.Kind() == reflect.Func && v.IsNil()) {
		return v, false, errors.Errorf("factory for %s is nil", target)
	}
	a := testArgs{
		t:      v.Type(),
		target: target,
		deps:   deps,
	}
	if err := factoryChecks.check(a); err != nil {
		return v, false, errors.Wrapf(err, "factory %s for %s", describeFunc(a.t), target)
	}
	for i, dep := range deps {
		if !dep.Resource.typ.AssignableTo(a.t.In(i)) {
			return v, false, errors.Errorf("factory %s for %s: parameter %s is %s, which cannot be filled by %s",
				describeFunc(a.t), target, dep.Name, typeName(a.t.In(i)), dep.Resource)
		}
	}
	return v, a.t.NumOut() == 2, nil
}

func describeFunc(t reflect.Type) string {
	if t.Kind() != reflect.Func {
		return typeName(t)
	}
	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		in[i] = t.In(i)
	}
	out := make([]reflect.Type, t.NumOut())
	for i := range out {
		out[i] = t.Out(i)
	}
	s := "func(" + strings.Join(typeNames(in), ", ") + ")"
	switch len(out) {
	case 0:
		return s
	case 1:
		return s + " " + typeName(out[0])
	default:
		return s + " (" + strings.Join(typeNames(out), ", ") + ")"
	}
}
