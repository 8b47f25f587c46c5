package framework

import "golang.org/x/exp/slices"

// Capabilities is the list of strings a test service reports to say what it supports. For this
// harness that means widget kinds ("timer", "calculator", "quote-machine") plus optional features.
type Capabilities []string

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	return slices.Contains(cs, name)
}

// Missing returns the names that do not appear in the list, in the order given.
func (cs Capabilities) Missing(names ...string) []string {
	var ret []string
	for _, n := range names {
		if !cs.Has(n) {
			ret = append(ret, n)
		}
	}
	return ret
}
