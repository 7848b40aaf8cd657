// Package metadata defines the read-only contract the semantic pipeline
// and SQL lowerer use to resolve entity names to tables, columns, and
// relationship metadata. The compiler never writes through this
// interface; it is satisfied by whatever catalog the embedding
// application maintains (see metadatastore/yamlstore for a concrete,
// file-backed implementation).
package metadata

import "github.com/quellabs/objectquel/ast"

// Annotation is a single declarative marker on an entity property, such
// as `@ManyToOne` or `@RequiredRelation`.
type Annotation struct {
	Name string
	Args map[string]string
}

// AnnotationGroup collects every annotation attached to one property.
type AnnotationGroup struct {
	Property    string
	Annotations []Annotation
}

// Has reports whether the group contains an annotation with the given
// name, case-sensitively.
func (g AnnotationGroup) Has(name string) bool {
	for _, a := range g.Annotations {
		if a.Name == name {
			return true
		}
	}
	return false
}

// OneToOne describes a one-to-one relationship owned by the property it
// is keyed under.
type OneToOne struct {
	TargetEntity    string
	JoinColumn      string
	InverseProperty string
}

// ManyToOne describes a many-to-one relationship: the owning side carries
// the foreign key.
type ManyToOne struct {
	TargetEntity string
	JoinColumn   string
}

// OneToMany describes the inverse side of a ManyToOne or OneToOne,
// resolved by the property on the target entity that points back here.
type OneToMany struct {
	TargetEntity string
	MappedBy     string
}

// MainRangeKey is the result of resolving a Retrieve's FROM-root range to
// its entity's primary key, used by the pagination rewriter.
type MainRangeKey struct {
	Entity     string
	PrimaryKey string
	Range      ast.Range
}

// Store is the read-only contract consumed by the semantic pipeline (E)
// and the SQL lowerer (G). Every lookup method's second return value is
// false when the entity or property is unknown; callers are expected to
// have already validated existence via Exists where the spec requires it.
type Store interface {
	// OwningTable returns the backing table name for entity.
	OwningTable(entity string) (string, bool)

	// ColumnMap returns the property-to-column mapping for entity.
	ColumnMap(entity string) (map[string]string, bool)

	// IdentifierKeys returns the ordered primary-key properties of entity.
	IdentifierKeys(entity string) ([]string, bool)

	// Annotations returns every annotation group declared on entity.
	Annotations(entity string) []AnnotationGroup

	// OneToOne returns entity's one-to-one relationships, keyed by
	// owning property.
	OneToOne(entity string) map[string]OneToOne

	// ManyToOne returns entity's many-to-one relationships, keyed by
	// owning property.
	ManyToOne(entity string) map[string]ManyToOne

	// OneToMany returns entity's one-to-many relationships, keyed by
	// owning property.
	OneToMany(entity string) map[string]OneToMany

	// AddNamespace qualifies a bare entity name with the store's
	// configured namespace (a no-op for stores with none).
	AddNamespace(name string) string

	// Exists reports whether entity is known to the store.
	Exists(entity string) bool

	// PrimaryKeyOfMainRange resolves the FROM-root range's entity and
	// primary key, used by the pagination rewriter. ok is false if the
	// retrieve has no database FROM-root range.
	PrimaryKeyOfMainRange(r *ast.Retrieve) (MainRangeKey, bool)
}

// MainRangeOf returns the RangeDatabase acting as the FROM root (the one
// range with no JoinProperty), or nil if none exists. Every concrete Store
// implementation's PrimaryKeyOfMainRange is expected to build on this.
func MainRangeOf(r *ast.Retrieve) *ast.RangeDatabase {
	for _, rg := range r.Ranges {
		if db, ok := rg.(*ast.RangeDatabase); ok && db.JoinProperty == nil {
			return db
		}
	}
	return nil
}

// ResolveMainRangeKey is the shared implementation of PrimaryKeyOfMainRange
// for stores whose IdentifierKeys already reports primary keys in a
// canonical first-key-wins order.
func ResolveMainRangeKey(store Store, r *ast.Retrieve) (MainRangeKey, bool) {
	root := MainRangeOf(r)
	if root == nil {
		return MainRangeKey{}, false
	}
	keys, ok := store.IdentifierKeys(root.EntityName)
	if !ok || len(keys) == 0 {
		return MainRangeKey{}, false
	}
	return MainRangeKey{Entity: root.EntityName, PrimaryKey: keys[0], Range: root}, true
}
