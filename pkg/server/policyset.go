package server

import (
	"sync/atomic"

	"mercator-hq/janus/pkg/pcl/ast"
)

// PolicySet holds the currently loaded policies. Replace swaps the whole set
// atomically, so hot reloads never expose a half-loaded view to in-flight
// evaluations.
type PolicySet struct {
	current atomic.Pointer[[]*ast.Policy]
}

// NewPolicySet returns a set holding the given policies.
func NewPolicySet(policies []*ast.Policy) *PolicySet {
	s := &PolicySet{}
	s.Replace(policies)
	return s
}

// Replace installs a new set of policies.
func (s *PolicySet) Replace(policies []*ast.Policy) {
	s.current.Store(&policies)
}

// All returns the current policies in load order. The returned slice must
// not be modified.
func (s *PolicySet) All() []*ast.Policy {
	return *s.current.Load()
}

// Find returns the policy with the given name, or nil.
func (s *PolicySet) Find(name string) *ast.Policy {
	for _, p := range s.All() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Len returns the number of loaded policies.
func (s *PolicySet) Len() int {
	return len(s.All())
}
