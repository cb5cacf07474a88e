package trace

// Name is a small tagged union replacing the source's deferred name
// callback: a trace's human-meaningful label is either known eagerly
// or resolved lazily from a callback, memoized on first observation.
type Name struct {
	eager    string
	resolve  func() string
	isEager  bool
}

// Eager wraps an already-known name.
func Eager(name string) Name {
	return Name{eager: name, isEager: true}
}

// Deferred wraps a callback resolved at most once, on first use.
func Deferred(resolve func() string) Name {
	return Name{resolve: resolve}
}

// IsZero reports whether the Name carries neither an eager value nor a
// resolver, i.e. it was never set.
func (n Name) IsZero() bool {
	return !n.isEager && n.resolve == nil
}
