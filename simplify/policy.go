package simplify

import (
	"strings"

	"github.com/pkg/errors"
)

// Policy selects how a collision mesh is simplified.
type Policy int

// The known simplification policies.
const (
	// PolicySmallest fits every primitive and keeps the one with the least volume.
	PolicySmallest Policy = iota
	PolicyBox
	PolicyCylinder
	PolicySphere
	// PolicyConvexHull replaces the mesh with its convex hull.
	PolicyConvexHull
)

var policyNames = map[Policy]string{
	PolicySmallest:   "smallest_primitive",
	PolicyBox:        "box",
	PolicyCylinder:   "cylinder",
	PolicySphere:     "sphere",
	PolicyConvexHull: "convex_mesh",
}

var policyAliases = map[string]Policy{
	"smallest":    PolicySmallest,
	"convex_hull": PolicyConvexHull,
	"hull":        PolicyConvexHull,
}

// PolicyNames lists the canonical policy names in declaration order.
func PolicyNames() []string {
	names := make([]string, 0, len(policyNames))
	for p := PolicySmallest; p <= PolicyConvexHull; p++ {
		names = append(names, policyNames[p])
	}
	return names
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePolicy returns the policy with the given name. Names are case-insensitive and dashes are treated as
// underscores.
func ParsePolicy(name string) (Policy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for p, pName := range policyNames {
		if pName == normalized {
			return p, nil
		}
	}
	if p, ok := policyAliases[normalized]; ok {
		return p, nil
	}
	return PolicySmallest, newError(UnsupportedPolicy, errors.Errorf("%q is not one of %s",
		name, strings.Join(PolicyNames(), ", ")))
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, newError(UnsupportedPolicy, errors.Errorf("policy %d", int(p)))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Kind is the shape of a SimplifiedGeometry.
type Kind int

// The shapes a mesh can be simplified to. The primitive kinds are declared in tie-break priority order.
const (
	KindBox Kind = iota
	KindCylinder
	KindSphere
	KindConvexHull
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindSphere:
		return "sphere"
	case KindConvexHull:
		return "convex_hull"
	default:
		return "unknown"
	}
}

// IsPrimitive reports whether the kind is one of the bounding primitives.
func (k Kind) IsPrimitive() bool {
	return k == KindBox || k == KindCylinder || k == KindSphere
}
