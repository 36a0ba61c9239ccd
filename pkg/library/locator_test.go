package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	liberrors "github.com/codebender/eratosthenes/pkg/errors"
	"github.com/codebender/eratosthenes/pkg/metadata"
)

func newTestLocator(t *testing.T, records ...metadata.Record) (*Locator, Roots) {
	t.Helper()
	roots := Roots{Builtin: t.TempDir(), External: t.TempDir()}
	writeTree(t, roots.Builtin, map[string]string{
		"libraries/Servo/Servo.h": "#pragma once\n",
		"libraries/Blynk/Blynk.h": "// builtin blynk\n",
	})
	writeTree(t, roots.External, map[string]string{
		"Blynk/1.0/Blynk.h":      "// external blynk\n",
		"Adafruit_GFX/1.2/gfx.h": "// gfx\n",
	})
	return NewLocator(roots, metadata.NewMemoryGateway(records...)), roots
}

func TestLocateBuiltin(t *testing.T) {
	l, roots := newTestLocator(t)

	lib, err := l.Locate(context.Background(), "Servo", "")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lib.Kind != Builtin {
		t.Errorf("Kind = %v, want builtin", lib.Kind)
	}
	want := filepath.Join(roots.Builtin, "libraries", "Servo")
	if lib.Dir != want || lib.ExamplesDir != want {
		t.Errorf("Dir = %s, ExamplesDir = %s, want %s", lib.Dir, lib.ExamplesDir, want)
	}
	if lib.Record != nil {
		t.Error("built-in library should carry no record")
	}
}

func TestLocateBuiltinWinsOverExternal(t *testing.T) {
	l, roots := newTestLocator(t, metadata.Record{MachineName: "Blynk", Active: true})

	lib, err := l.Locate(context.Background(), "Blynk", "1.0")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lib.Kind != Builtin || lib.Dir != filepath.Join(roots.Builtin, "libraries", "Blynk") {
		t.Errorf("got %v at %s, want built-in", lib.Kind, lib.Dir)
	}
}

func TestLocateExternal(t *testing.T) {
	l, roots := newTestLocator(t, metadata.Record{MachineName: "Adafruit_GFX", Active: true})

	lib, err := l.Locate(context.Background(), "Adafruit_GFX", "1.2")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if lib.Kind != External {
		t.Errorf("Kind = %v, want external", lib.Kind)
	}
	if want := filepath.Join(roots.External, "Adafruit_GFX", "1.2"); lib.Dir != want {
		t.Errorf("Dir = %s, want %s", lib.Dir, want)
	}
	if want := filepath.Join(roots.External, "Adafruit_GFX"); lib.ExamplesDir != want {
		t.Errorf("ExamplesDir = %s, want %s", lib.ExamplesDir, want)
	}
	if lib.Record == nil || lib.Record.MachineName != "Adafruit_GFX" {
		t.Errorf("Record = %+v", lib.Record)
	}
}

func TestLocateErrors(t *testing.T) {
	l, _ := newTestLocator(t,
		metadata.Record{MachineName: "Adafruit_GFX", Active: true},
		metadata.Record{MachineName: "Retired", Active: false},
	)

	tests := []struct {
		name    string
		lib     string
		version string
		code    liberrors.Code
	}{
		{"unknown", "Nope", "1.0", liberrors.ErrCodeLibraryNotFound},
		{"disabled", "Retired", "1.0", liberrors.ErrCodeLibraryNotFound},
		{"external without version", "Adafruit_GFX", "", liberrors.ErrCodeInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Locate(context.Background(), tt.lib, tt.version)
			if !liberrors.Is(err, tt.code) {
				t.Errorf("Locate(%q, %q) err = %v, want code %s", tt.lib, tt.version, err, tt.code)
			}
		})
	}
}

// failingGateway always errors.
type failingGateway struct{ err error }

func (g failingGateway) FindActiveByName(context.Context, string) (*metadata.Record, error) {
	return nil, g.err
}

func (g failingGateway) FindAnyByName(context.Context, string, bool) (*metadata.Record, error) {
	return nil, g.err
}

func TestLocateGatewayFailure(t *testing.T) {
	boom := errors.New("connection refused")
	roots := Roots{Builtin: t.TempDir(), External: t.TempDir()}
	writeTree(t, roots.Builtin, map[string]string{"libraries/Servo/Servo.h": ""})
	l := NewLocator(roots, failingGateway{err: boom})

	_, err := l.Locate(context.Background(), "Blynk", "1.0")
	if !liberrors.Is(err, liberrors.ErrCodeMetadata) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want metadata error wrapping cause", err)
	}

	// Built-ins never touch the gateway.
	if _, err := l.Locate(context.Background(), "Servo", ""); err != nil {
		t.Errorf("built-in lookup should not consult the gateway: %v", err)
	}
}

func TestLocateNilGateway(t *testing.T) {
	l := NewLocator(Roots{Builtin: t.TempDir(), External: t.TempDir()}, nil)
	if _, err := l.Locate(context.Background(), "Blynk", "1.0"); !liberrors.Is(err, liberrors.ErrCodeLibraryNotFound) {
		t.Errorf("err = %v, want LIBRARY_NOT_FOUND", err)
	}
}

func TestExists(t *testing.T) {
	l, _ := newTestLocator(t,
		metadata.Record{MachineName: "Adafruit_GFX", Active: true},
		metadata.Record{MachineName: "Retired", Active: false},
	)
	ctx := context.Background()

	tests := []struct {
		lib             string
		includeDisabled bool
		want            bool
	}{
		{"Servo", false, true},
		{"Adafruit_GFX", false, true},
		{"Retired", false, false},
		{"Retired", true, true},
		{"Nope", true, false},
	}
	for _, tt := range tests {
		got, err := l.Exists(ctx, tt.lib, tt.includeDisabled)
		if err != nil {
			t.Fatalf("Exists(%q): %v", tt.lib, err)
		}
		if got != tt.want {
			t.Errorf("Exists(%q, %v) = %v, want %v", tt.lib, tt.includeDisabled, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if Builtin.String() != "builtin" || External.String() != "external" || Kind(0).String() != "unknown" {
		t.Error("unexpected Kind strings")
	}
}
