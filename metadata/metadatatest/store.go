// Package metadatatest provides an in-memory metadata.Store for use in
// tests across the semantic, sqlgen, and paginate packages.
package metadatatest

import (
	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
)

// Entity is one entity's worth of fixture metadata.
type Entity struct {
	Table       string
	Columns     map[string]string // property -> column
	Identifiers []string
	Annotations []metadata.AnnotationGroup
	OneToOne    map[string]metadata.OneToOne
	ManyToOne   map[string]metadata.ManyToOne
	OneToMany   map[string]metadata.OneToMany
}

// Store is a fixture-driven metadata.Store. The zero value is usable;
// populate Entities before use.
type Store struct {
	Namespace string
	Entities  map[string]Entity
}

// New creates an empty Store.
func New() *Store {
	return &Store{Entities: map[string]Entity{}}
}

// With registers entity under name and returns the Store for chaining.
func (s *Store) With(name string, e Entity) *Store {
	s.Entities[name] = e
	return s
}

func (s *Store) OwningTable(entity string) (string, bool) {
	e, ok := s.Entities[entity]
	if !ok {
		return "", false
	}
	return e.Table, true
}

func (s *Store) ColumnMap(entity string) (map[string]string, bool) {
	e, ok := s.Entities[entity]
	if !ok {
		return nil, false
	}
	return e.Columns, true
}

func (s *Store) IdentifierKeys(entity string) ([]string, bool) {
	e, ok := s.Entities[entity]
	if !ok {
		return nil, false
	}
	return e.Identifiers, true
}

func (s *Store) Annotations(entity string) []metadata.AnnotationGroup {
	return s.Entities[entity].Annotations
}

func (s *Store) OneToOne(entity string) map[string]metadata.OneToOne {
	return s.Entities[entity].OneToOne
}

func (s *Store) ManyToOne(entity string) map[string]metadata.ManyToOne {
	return s.Entities[entity].ManyToOne
}

func (s *Store) OneToMany(entity string) map[string]metadata.OneToMany {
	return s.Entities[entity].OneToMany
}

func (s *Store) AddNamespace(name string) string {
	if s.Namespace == "" {
		return name
	}
	return s.Namespace + "." + name
}

func (s *Store) Exists(entity string) bool {
	_, ok := s.Entities[entity]
	return ok
}

func (s *Store) PrimaryKeyOfMainRange(r *ast.Retrieve) (metadata.MainRangeKey, bool) {
	return metadata.ResolveMainRangeKey(s, r)
}
