package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLintRepositoryQueries(t *testing.T) {
	violations, err := lint([]string{filepath.Join("..", "..", "sqlinline")})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected violation: %s", v)
	}
}

func TestLintFlagsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	src := "package q\n\n" +
		"const QA = `--sql 11111111-2222-3333-4444-555555555555\nselect 1;`\n" +
		"const QB = `--sql 11111111-2222-3333-4444-555555555555\nselect 2;`\n" +
		"const QC = `select 3;`\n" +
		"const Label = \"plain text\"\n"
	if err := os.WriteFile(filepath.Join(dir, "q.go"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	violations, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(violations), violations)
	}
	if violations[0].name != "QB" || !strings.Contains(violations[0].message, "already used by QA") {
		t.Fatalf("unexpected first violation: %s", violations[0])
	}
	if violations[1].name != "QC" || !strings.Contains(violations[1].message, "missing") {
		t.Fatalf("unexpected second violation: %s", violations[1])
	}
}
