// Package exposure decides which tools a deployment publishes.
package exposure

// Tool is the set of facts a policy sees about one tool.
type Tool struct {
	Name     string
	Category string
	ReadOnly bool
}

// Policy reports whether a tool is exposed.
type Policy interface {
	Allows(t Tool) (bool, error)
}

// AllowAll exposes every tool.
type AllowAll struct{}

// Allows always returns true.
func (AllowAll) Allows(Tool) (bool, error) { return true, nil }

// Filter returns the tools the policy allows, in input order. The first
// evaluation error aborts the filter.
func Filter(p Policy, tools []Tool) ([]Tool, error) {
	if p == nil {
		p = AllowAll{}
	}
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		ok, err := p.Allows(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
