// Package yamlstore is a reference metadata.Store that loads entity
// metadata (table, columns, identifiers, annotations, relationships) from
// a hand-authored YAML document, validated against a JSON Schema
// generated from this package's own Document struct. It is not the full
// entity-metadata store spec.md excludes from core scope (no source
// scanning, no class discovery) — just a static loader suitable for
// tests, examples, and the CLI.
package yamlstore

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Document is the top-level shape of an entity metadata YAML file.
type Document struct {
	Namespace string            `yaml:"namespace,omitempty" json:"namespace,omitempty" jsonschema:"description=Prefix applied to every entity name by Store.AddNamespace"`
	Entities  map[string]Entity `yaml:"entities" json:"entities" jsonschema:"required,minProperties=1"`
}

// Entity is one entity's worth of table/column/relationship metadata.
type Entity struct {
	Table       string               `yaml:"table" json:"table" jsonschema:"required,minLength=1"`
	Columns     map[string]string    `yaml:"columns" json:"columns" jsonschema:"required,minProperties=1,description=property name to column name"`
	Identifiers []string             `yaml:"identifiers" json:"identifiers" jsonschema:"required,minItems=1,description=primary key properties, in canonical order"`
	Annotations []AnnotationGroup    `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	OneToOne    map[string]OneToOne  `yaml:"one_to_one,omitempty" json:"one_to_one,omitempty"`
	ManyToOne   map[string]ManyToOne `yaml:"many_to_one,omitempty" json:"many_to_one,omitempty"`
	OneToMany   map[string]OneToMany `yaml:"one_to_many,omitempty" json:"one_to_many,omitempty"`
}

// AnnotationGroup collects every annotation attached to one property.
type AnnotationGroup struct {
	Property    string       `yaml:"property" json:"property" jsonschema:"required,minLength=1"`
	Annotations []Annotation `yaml:"annotations" json:"annotations" jsonschema:"required,minItems=1"`
}

// Annotation is a single declarative marker, such as `RequiredRelation`.
type Annotation struct {
	Name string            `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// OneToOne describes a one-to-one relationship owned by its property.
type OneToOne struct {
	TargetEntity    string `yaml:"target_entity" json:"target_entity" jsonschema:"required,minLength=1"`
	JoinColumn      string `yaml:"join_column" json:"join_column" jsonschema:"required,minLength=1"`
	InverseProperty string `yaml:"inverse_property,omitempty" json:"inverse_property,omitempty"`
}

// ManyToOne describes a many-to-one relationship: the owning side carries
// the foreign key.
type ManyToOne struct {
	TargetEntity string `yaml:"target_entity" json:"target_entity" jsonschema:"required,minLength=1"`
	JoinColumn   string `yaml:"join_column" json:"join_column" jsonschema:"required,minLength=1"`
}

// OneToMany describes the inverse side of a ManyToOne or OneToOne.
type OneToMany struct {
	TargetEntity string `yaml:"target_entity" json:"target_entity" jsonschema:"required,minLength=1"`
	MappedBy     string `yaml:"mapped_by" json:"mapped_by" jsonschema:"required,minLength=1"`
}

// GenerateSchema reflects a JSON Schema from Document, for publishing
// alongside the YAML format; Validate compiles it to check documents.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Document{})
	schema.Title = "ObjectQuel entity metadata document"
	schema.Description = "Schema for the YAML files loaded by metadatastore/yamlstore"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

// Validate checks data (a YAML document) against the schema generated
// from Document before it is unmarshaled into one, so a malformed
// metadata file is rejected with a schema-path error rather than a
// confusing downstream Store lookup failure.
func Validate(data []byte) error {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	jsonCompatible := toJSONTypes(generic)

	schemaBytes, err := GenerateSchema()
	if err != nil {
		return err
	}
	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return fmt.Errorf("parse generated schema: %w", err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("entities.json", schemaData); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("entities.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := sch.Validate(jsonCompatible); err != nil {
		return fmt.Errorf("metadata document failed schema validation: %w", err)
	}
	return nil
}

// toJSONTypes copies yaml.Unmarshal's map[string]any and []any output
// recursively into fresh containers; scalars are returned unchanged, with
// no numeric conversion.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = toJSONTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = toJSONTypes(v)
		}
		return out
	default:
		return val
	}
}

// Parse validates and unmarshals data into a Document.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("metadata document is empty")
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &doc, nil
}
