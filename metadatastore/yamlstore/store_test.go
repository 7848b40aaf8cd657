package yamlstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellabs/objectquel/metadatastore/yamlstore"
)

const sampleDocument = `
namespace: shop
entities:
  Product:
    table: products
    columns:
      id: id
      name: name
      price: price
      categoryId: category_id
    identifiers:
      - id
    many_to_one:
      category:
        target_entity: Category
        join_column: category_id
    annotations:
      - property: category
        annotations:
          - name: RequiredRelation
  Category:
    table: categories
    columns:
      id: id
      name: name
    identifiers:
      - id
    one_to_many:
      products:
        target_entity: Product
        mapped_by: category
`

func TestNewParsesValidDocument(t *testing.T) {
	store, err := yamlstore.New([]byte(sampleDocument))
	require.NoError(t, err)

	table, ok := store.OwningTable("Product")
	require.True(t, ok)
	assert.Equal(t, "products", table)

	keys, ok := store.IdentifierKeys("Category")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, keys)

	assert.Equal(t, "shop.Product", store.AddNamespace("Product"))
	assert.True(t, store.Exists("Product"))
	assert.False(t, store.Exists("Unknown"))
}

func TestNewExposesRelationshipsAndAnnotations(t *testing.T) {
	store, err := yamlstore.New([]byte(sampleDocument))
	require.NoError(t, err)

	manyToOne := store.ManyToOne("Product")
	require.Contains(t, manyToOne, "category")
	assert.Equal(t, "Category", manyToOne["category"].TargetEntity)
	assert.Equal(t, "category_id", manyToOne["category"].JoinColumn)

	oneToMany := store.OneToMany("Category")
	require.Contains(t, oneToMany, "products")
	assert.Equal(t, "Product", oneToMany["products"].TargetEntity)

	groups := store.Annotations("Product")
	require.Len(t, groups, 1)
	assert.Equal(t, "category", groups[0].Property)
	assert.True(t, groups[0].Has("RequiredRelation"))
}

func TestNewRejectsDocumentMissingRequiredFields(t *testing.T) {
	_, err := yamlstore.New([]byte(`
entities:
  Product:
    table: products
`))
	require.Error(t, err)
}

func TestNewRejectsEmptyInput(t *testing.T) {
	_, err := yamlstore.New(nil)
	require.Error(t, err)
}

func TestGenerateSchemaProducesValidJSON(t *testing.T) {
	data, err := yamlstore.GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$schema"`)
	assert.Contains(t, string(data), "entities")
}
