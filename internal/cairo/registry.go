package cairo

// Registry is the arena of named types for one ABI. Slots are addressed by
// name; a slot keeps its position when redefined.
type Registry struct {
	slots []Named
	index map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Define registers n under its name and returns the node it replaced, if any.
func (r *Registry) Define(n Named) (previous Named, replaced bool) {
	name := n.TypeName()
	if i, ok := r.index[name]; ok {
		previous = r.slots[i]
		r.slots[i] = n
		return previous, true
	}
	r.index[name] = len(r.slots)
	r.slots = append(r.slots, n)
	return nil, false
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (Named, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.slots[i], true
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Names returns registered names in definition order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.slots))
	for i, n := range r.slots {
		names[i] = n.TypeName()
	}
	return names
}
