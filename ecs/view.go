package ecs

import "fmt"

// Single is a Query that must match exactly one row (spec.md §4.5,
// `Single<I,E>`). Grounded on ecs/query.go's Query[Include,Exclude];
// adds the zero/ambiguous-match error contract on top of it.
type Single[Include any, Exclude any] struct {
	query *Query[Include, Exclude]
}

// NewSingle specializes a Single against m's component registry.
func NewSingle[Include any, Exclude any](m *Manager) *Single[Include, Exclude] {
	s := &Single[Include, Exclude]{}
	s.Init(m)
	return s
}

// Init (re-)specializes s against m; see Query.Init for why this exact
// shape exists (reflective construction from the SingleParam provider).
func (s *Single[Include, Exclude]) Init(m *Manager) {
	s.query = NewQuery[Include, Exclude](m)
}

// Get returns the one matching row, or an error if zero or more than one
// archetype row matches.
func (s *Single[Include, Exclude]) Get() (*Include, error) {
	var first *Include
	count := 0
	s.query.Each(func(item *Include) bool {
		count++
		if count == 1 {
			cp := *item
			first = &cp
		}
		return count < 2
	})
	name := fmt.Sprintf("%T", *new(Include))
	if count == 0 {
		return nil, SingleComponentNotFoundError{Query: name}
	}
	if count > 1 {
		return nil, SingleComponentAmbiguousError{Query: name, Count: s.query.Count()}
	}
	return first, nil
}
