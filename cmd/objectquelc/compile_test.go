package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleEntities = `
namespace: shop
entities:
  Product:
    table: products
    columns:
      id: id
      name: name
      price: price
    identifiers:
      - id
`

func writeSampleEntities(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "entities.yaml")
	if err := os.WriteFile(path, []byte(sampleEntities), 0o600); err != nil {
		t.Fatalf("write entities fixture: %v", err)
	}
	return path
}

func writeSampleQuery(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "query.oql")
	query := "range of p is Product\nretrieve (p.name) where p.price > :min"
	if err := os.WriteFile(path, []byte(query), 0o600); err != nil {
		t.Fatalf("write query fixture: %v", err)
	}
	return path
}

func TestCompileCmdPrintsSQL(t *testing.T) {
	entities := writeSampleEntities(t)
	query := writeSampleQuery(t)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"compile", query, "--entities", entities, "--params", `{"min": 10}`})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "SELECT") {
		t.Fatalf("expected SQL output, got %q", out)
	}
	if !strings.Contains(out, "products") {
		t.Fatalf("expected products table in output, got %q", out)
	}
}

func TestCompileCmdRequiresEntitiesFlag(t *testing.T) {
	query := writeSampleQuery(t)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"compile", query})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when --entities is omitted")
	}
}

func TestTokensCmdPrintsTokenStream(t *testing.T) {
	query := writeSampleQuery(t)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"tokens", query})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "range") {
		t.Fatalf("expected token dump to mention the range keyword, got %q", buf.String())
	}
}

func TestVersionCmdPrintsVersion(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "objectquelc") {
		t.Fatalf("expected version output to mention objectquelc, got %q", buf.String())
	}
}
