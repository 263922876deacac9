package counters

import "sort"

// Counters maps a counter type (e.g. "+1/+1", "charge", "loyalty") to a
// positive count. A type whose count reaches zero is removed from the map,
// so a zero or negative entry is never stored.
type Counters map[string]int

// New creates an empty counter bag.
func New() Counters {
	return make(Counters)
}

// Apply returns a copy of cs with delta added to name. The result is clamped
// at zero and the key is deleted when it reaches zero. The receiver is not
// modified.
func (cs Counters) Apply(name string, delta int) Counters {
	next := cs.Copy()
	count := next[name] + delta
	if count <= 0 {
		delete(next, name)
		return next
	}
	next[name] = count
	return next
}

// Copy creates a deep copy of the counter bag. A nil bag copies to an empty one.
func (cs Counters) Copy() Counters {
	next := make(Counters, len(cs))
	for name, count := range cs {
		if count > 0 {
			next[name] = count
		}
	}
	return next
}

// Names returns the counter types present, sorted.
func (cs Counters) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToView converts counters to a stable, name-ordered list.
func (cs Counters) ToView() []CounterView {
	views := make([]CounterView, 0, len(cs))
	for _, name := range cs.Names() {
		views = append(views, CounterView{Name: name, Count: cs[name]})
	}
	return views
}

// CounterView represents a counter in the view format.
type CounterView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
