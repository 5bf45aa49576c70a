package rdf

import "sort"

// Term is the object position of a triple: either an IRI or a string literal.
type Term struct {
	Value   string
	Literal bool
}

// IRI returns an IRI term.
func IRI(v string) Term {
	return Term{Value: v}
}

// Literal returns a string literal term.
func Literal(v string) Term {
	return Term{Value: v, Literal: true}
}

// Triple is a single (subject, predicate, object) fact. Subjects and
// predicates are always IRIs.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// Store is a triple set with set semantics: adding a triple twice is a
// no-op. A Store is mutated only while a build accumulates into it; after
// that it is read-only and safe for concurrent readers.
type Store struct {
	triples map[Triple]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{triples: make(map[Triple]struct{})}
}

// Add inserts a triple, reporting whether it was not already present.
func (s *Store) Add(t Triple) bool {
	if _, ok := s.triples[t]; ok {
		return false
	}
	s.triples[t] = struct{}{}
	return true
}

// Contains reports whether the store holds the given triple.
func (s *Store) Contains(t Triple) bool {
	_, ok := s.triples[t]
	return ok
}

// Len returns the number of distinct triples.
func (s *Store) Len() int {
	return len(s.triples)
}

// Triples returns all triples in a deterministic order: by subject, then
// predicate, then object.
func (s *Store) Triples() []Triple {
	out := make([]Triple, 0, len(s.triples))
	for t := range s.triples {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		if a.Object.Literal != b.Object.Literal {
			return !a.Object.Literal
		}
		return a.Object.Value < b.Object.Value
	})
	return out
}

// Equal reports whether two stores hold exactly the same triple set.
func (s *Store) Equal(other *Store) bool {
	if len(s.triples) != len(other.triples) {
		return false
	}
	for t := range s.triples {
		if _, ok := other.triples[t]; !ok {
			return false
		}
	}
	return true
}
