package tool

// Registry maps tool names to implementations, decoupling the coordinator
// from concrete tools. Registration happens once at startup before any
// concurrent access begins, so the registry carries no lock.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register stores the tool under its declared name. Re-registering the
// same name overwrites the previous entry (last writer wins).
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns the tool registered under name. A missing tool returns
// ok=false rather than failing; callers treat that as a setup error.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ListNames returns a snapshot of registered names in insertion order.
func (r *Registry) ListNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
