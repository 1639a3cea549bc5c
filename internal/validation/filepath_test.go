package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathValidator_Clean(t *testing.T) {
	base := t.TempDir()
	v := &PathValidator{BaseDirs: []string{base}, MaxPathLength: 4096}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "inside base", input: filepath.Join(base, "tweets.db"), want: filepath.Join(base, "tweets.db")},
		{name: "base itself", input: base, want: base},
		{name: "empty", input: "", wantErr: true},
		{name: "traversal", input: filepath.Join(base, "..", "escape.db"), wantErr: true},
		{name: "outside base", input: filepath.Join(filepath.Dir(base), "other", "x.db"), wantErr: true},
		{name: "control char", input: base + "/a\x01b", wantErr: true},
		{name: "bad tilde", input: "~root/x", wantErr: true},
		{name: "too long", input: base + "/" + strings.Repeat("a", 5000), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Clean(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPathValidator_OutsideBaseDirs(t *testing.T) {
	v := &PathValidator{BaseDirs: []string{t.TempDir()}}
	_, err := v.Clean("/definitely/not/allowed")
	if !errors.Is(err, ErrOutsideBaseDirs) {
		t.Errorf("expected ErrOutsideBaseDirs, got %v", err)
	}
}

func TestPathValidator_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := NewPermissivePathValidator().Clean("~/.tweetsync/tweets.db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".tweetsync", "tweets.db"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPathValidator_EnsureDirAndValidateFile(t *testing.T) {
	base := t.TempDir()
	v := NewPermissivePathValidator()

	dir, err := v.EnsureDir(filepath.Join(base, "media", "photos"))
	if err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	if _, err := v.ValidateFile(dir); err == nil {
		t.Error("a directory must not validate as a file")
	}

	file := filepath.Join(base, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := v.EnsureDir(file); err == nil {
		t.Error("a file must not validate as a directory")
	}
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":        "photo.jpg",
		"../../etc/passwd": "passwd",
		`..\..\boot.ini`:   "boot.ini",
		"a:b?.png":         "a_b_.png",
		".hidden":          "hidden",
		"":                 "file",
		"..":               "file",
	}
	for in, want := range tests {
		if got := SafeFileName(in); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
