package call

import "fmt"

// Factory constructs a fresh, zero-valued Call for the given variant. The
// fuzz loop and runner call this once at start-up based on the configured
// target name and never branch on variant identity again.
type Factory func() Call

var factories = map[Variant]Factory{}

// Register installs the constructor for a variant. Concrete variant
// packages call this from an init() function.
func Register(v Variant, f Factory) {
	factories[v] = f
}

// New constructs a fresh Call for the named variant.
func New(v Variant) (Call, error) {
	f, ok := factories[v]
	if !ok {
		return nil, fmt.Errorf("call: unknown variant %q", v)
	}
	return f(), nil
}
