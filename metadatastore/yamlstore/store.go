package yamlstore

import (
	"fmt"
	"os"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/metadata"
)

// Store is a metadata.Store backed by a parsed Document.
type Store struct {
	namespace string
	entities  map[string]Entity
}

// Load reads and validates path, returning a ready-to-use Store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata document %s: %w", path, err)
	}
	return New(data)
}

// New validates and parses raw YAML into a Store.
func New(data []byte) (*Store, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	// Entities are reachable both by bare name and by the namespaced name
	// AddNamespace produces.
	entities := doc.Entities
	if doc.Namespace != "" {
		entities = make(map[string]Entity, 2*len(doc.Entities))
		for name, e := range doc.Entities {
			entities[name] = e
			entities[doc.Namespace+"."+name] = e
		}
	}
	return &Store{namespace: doc.Namespace, entities: entities}, nil
}

func (s *Store) OwningTable(entity string) (string, bool) {
	e, ok := s.entities[entity]
	if !ok {
		return "", false
	}
	return e.Table, true
}

func (s *Store) ColumnMap(entity string) (map[string]string, bool) {
	e, ok := s.entities[entity]
	if !ok {
		return nil, false
	}
	return e.Columns, true
}

func (s *Store) IdentifierKeys(entity string) ([]string, bool) {
	e, ok := s.entities[entity]
	if !ok {
		return nil, false
	}
	return e.Identifiers, true
}

func (s *Store) Annotations(entity string) []metadata.AnnotationGroup {
	groups := s.entities[entity].Annotations
	out := make([]metadata.AnnotationGroup, len(groups))
	for i, g := range groups {
		annotations := make([]metadata.Annotation, len(g.Annotations))
		for j, a := range g.Annotations {
			annotations[j] = metadata.Annotation{Name: a.Name, Args: a.Args}
		}
		out[i] = metadata.AnnotationGroup{Property: g.Property, Annotations: annotations}
	}
	return out
}

func (s *Store) OneToOne(entity string) map[string]metadata.OneToOne {
	src := s.entities[entity].OneToOne
	out := make(map[string]metadata.OneToOne, len(src))
	for k, v := range src {
		out[k] = metadata.OneToOne{TargetEntity: v.TargetEntity, JoinColumn: v.JoinColumn, InverseProperty: v.InverseProperty}
	}
	return out
}

func (s *Store) ManyToOne(entity string) map[string]metadata.ManyToOne {
	src := s.entities[entity].ManyToOne
	out := make(map[string]metadata.ManyToOne, len(src))
	for k, v := range src {
		out[k] = metadata.ManyToOne{TargetEntity: v.TargetEntity, JoinColumn: v.JoinColumn}
	}
	return out
}

func (s *Store) OneToMany(entity string) map[string]metadata.OneToMany {
	src := s.entities[entity].OneToMany
	out := make(map[string]metadata.OneToMany, len(src))
	for k, v := range src {
		out[k] = metadata.OneToMany{TargetEntity: v.TargetEntity, MappedBy: v.MappedBy}
	}
	return out
}

func (s *Store) AddNamespace(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "." + name
}

func (s *Store) Exists(entity string) bool {
	_, ok := s.entities[entity]
	return ok
}

func (s *Store) PrimaryKeyOfMainRange(r *ast.Retrieve) (metadata.MainRangeKey, bool) {
	return metadata.ResolveMainRangeKey(s, r)
}
