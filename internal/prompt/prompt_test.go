package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "support.md")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_WithFrontmatter(t *testing.T) {
	path := writePrompt(t, "---\nname: support\ndescription: Support desk persona\nmodel: gpt-4o\n---\nYou answer customer questions.\nBe brief.\n")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Name != "support" {
		t.Errorf("name = %q, want %q", p.Name, "support")
	}
	if p.Description != "Support desk persona" {
		t.Errorf("description = %q, want %q", p.Description, "Support desk persona")
	}
	if p.Model != "gpt-4o" {
		t.Errorf("model = %q, want %q", p.Model, "gpt-4o")
	}
	if p.Text != "You answer customer questions.\nBe brief." {
		t.Errorf("text = %q", p.Text)
	}
	if p.Path != path {
		t.Errorf("path = %q, want %q", p.Path, path)
	}
}

func TestLoad_PlainText(t *testing.T) {
	p, err := Load(writePrompt(t, "Отвечай по-русски.\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Text != "Отвечай по-русски." {
		t.Errorf("text = %q", p.Text)
	}
	if p.Name != "" || p.Model != "" {
		t.Errorf("expected no frontmatter fields, got %+v", p)
	}
}

func TestLoad_UnclosedFrontmatter(t *testing.T) {
	_, err := Load(writePrompt(t, "---\nname: broken\nBody without closing delimiter\n"))
	if err == nil {
		t.Fatal("expected error for unclosed frontmatter")
	}
	if !strings.Contains(err.Error(), "closing frontmatter") {
		t.Errorf("error should mention closing delimiter: %v", err)
	}
}

func TestLoad_BadFrontmatterYAML(t *testing.T) {
	_, err := Load(writePrompt(t, "---\nname: [unterminated\n---\nBody\n"))
	if err == nil {
		t.Fatal("expected error for malformed frontmatter")
	}
}

func TestLoad_EmptyBody(t *testing.T) {
	_, err := Load(writePrompt(t, "---\nname: empty\n---\n\n   \n"))
	if err == nil {
		t.Fatal("expected error for empty prompt text")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
