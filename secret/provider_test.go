package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	p := &EnvProvider{lookup: func(k string) (string, bool) {
		if k == "GEMINI_API_KEY" {
			return "key-123", true
		}
		return "", false
	}}

	if p.Name() != "env" {
		t.Errorf("Name() = %q", p.Name())
	}
	got, err := p.Resolve(context.Background(), "GEMINI_API_KEY")
	if err != nil || got != "key-123" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if _, err := p.Resolve(context.Background(), "MISSING"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(MISSING) error = %v, want %v", err, ErrNotFound)
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt")
	if err := os.WriteFile(path, []byte("  s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := FileProvider{}.Resolve(context.Background(), path)
	if err != nil || got != "s3cret" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if _, err := (FileProvider{}).Resolve(context.Background(), filepath.Join(t.TempDir(), "nope")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v, want %v", err, ErrNotFound)
	}
}

func TestDefault_ResolvesEnvRef(t *testing.T) {
	t.Setenv("TOOLVERSE_TEST_SECRET", "abc")

	got, err := Default().ResolveValue(context.Background(), "secretref:env:TOOLVERSE_TEST_SECRET")
	if err != nil || got != "abc" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}
