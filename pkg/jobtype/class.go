package jobtype

import (
	"fmt"
)

// Class is a named, fixed-arity type constructor. Classes form a single
// inheritance tree rooted at Base and never change once defined.
type Class struct {
	name      string
	parent    *Class
	abstract  bool
	params    []Bound
	behaviour any
}

// ClassSpec describes a class to Define.
type ClassSpec struct {
	// Name is the class's intrinsic name, used by Type.String and as the
	// default registry name.
	Name string

	// Parent defaults to Base.
	Parent *Class

	// Abstract classes cannot encode or decode values.
	Abstract bool

	// Params holds one bound per type parameter.
	Params []Bound

	// Behaviour implements some of JSONBehaviour, BinaryBehaviour,
	// FiniteBehaviour, ServerResidentBehaviour and NamedBehaviour. A nil
	// behaviour is inherited from the parent.
	Behaviour any
}

// Base is the root of the class tree.
var Base = &Class{name: "Type", abstract: true}

// Define creates a class from spec.
func Define(spec ClassSpec) (*Class, error) {
	if !IsIdentifier(spec.Name) {
		return nil, fmt.Errorf("jobtype: class name %q is not a valid identifier", spec.Name)
	}

	parent := spec.Parent
	if parent == nil {
		parent = Base
	}
	if len(spec.Params) < len(parent.params) {
		return nil, fmt.Errorf(
			"jobtype: class %s declares %d parameters but its parent %s has %d",
			spec.Name, len(spec.Params), parent.name, len(parent.params),
		)
	}

	params := make([]Bound, len(spec.Params))
	for i, b := range spec.Params {
		if !b.valid() {
			return nil, fmt.Errorf("jobtype: class %s has an invalid bound for parameter %d", spec.Name, i)
		}
		params[i] = b
	}

	return &Class{
		name:      spec.Name,
		parent:    parent,
		abstract:  spec.Abstract,
		params:    params,
		behaviour: spec.Behaviour,
	}, nil
}

// MustDefine is Define for package-level class variables.
func MustDefine(spec ClassSpec) *Class {
	c, err := Define(spec)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Class) Name() string { return c.name }

func (c *Class) Parent() *Class { return c.parent }

func (c *Class) Abstract() bool { return c.abstract }

func (c *Class) Arity() int { return len(c.params) }

// Params returns a copy of the parameter bounds.
func (c *Class) Params() []Bound {
	out := make([]Bound, len(c.params))
	copy(out, c.params)
	return out
}

// IsA reports whether c is other or one of its descendants.
func (c *Class) IsA(other *Class) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Behaviour returns the nearest behaviour on the parent chain.
func (c *Class) Behaviour() any {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.behaviour != nil {
			return cur.behaviour
		}
	}
	return nil
}

func (c *Class) String() string { return c.name }
