package library

import (
	"context"
	"os"
	"path/filepath"

	liberrors "github.com/codebender/eratosthenes/pkg/errors"
	"github.com/codebender/eratosthenes/pkg/metadata"
)

// Kind distinguishes built-in from external libraries.
type Kind int

const (
	Builtin Kind = iota + 1
	External
)

// String returns "builtin" or "external".
func (k Kind) String() string {
	switch k {
	case Builtin:
		return "builtin"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Roots are the configured library trees.
//
//	<Builtin>/libraries/<name>/...
//	<External>/<name>/<version>/...
type Roots struct {
	Builtin  string
	External string
}

// Resolved is a located library.
type Resolved struct {
	CanonicalName string
	Kind          Kind
	// Dir holds the library files: the built-in directory or the external
	// version directory.
	Dir string
	// ExamplesDir is searched for sketches. For external libraries it is
	// the version-independent name directory.
	ExamplesDir string
	// Record is the registry entry of an external library, nil for built-ins.
	Record *metadata.Record
}

// Locator maps canonical names to library directories.
type Locator struct {
	roots   Roots
	gateway metadata.Gateway
}

// NewLocator creates a Locator. A nil gateway means no external libraries
// are registered.
func NewLocator(roots Roots, gateway metadata.Gateway) *Locator {
	return &Locator{roots: roots, gateway: gateway}
}

// BuiltinDir returns the directory a built-in library named name would use.
func (l *Locator) BuiltinDir(name string) string {
	return filepath.Join(l.roots.Builtin, "libraries", name)
}

// ExternalDir returns the directory of an external library, without version.
func (l *Locator) ExternalDir(name string) string {
	return filepath.Join(l.roots.External, name)
}

// HasBuiltin reports whether name is a built-in library directory.
func (l *Locator) HasBuiltin(name string) bool {
	return isDir(l.BuiltinDir(name))
}

// Locate resolves name. A built-in directory short-circuits the registry
// lookup. External libraries must be active and need a version; whether the
// version directory holds files is for the caller to decide.
func (l *Locator) Locate(ctx context.Context, name, version string) (*Resolved, error) {
	if l.HasBuiltin(name) {
		dir := l.BuiltinDir(name)
		return &Resolved{CanonicalName: name, Kind: Builtin, Dir: dir, ExamplesDir: dir}, nil
	}

	rec, err := l.lookup(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errLibraryNotFound(name)
	}
	if version == "" {
		return nil, errVersionRequired(name)
	}

	base := l.ExternalDir(name)
	return &Resolved{
		CanonicalName: name,
		Kind:          External,
		Dir:           filepath.Join(base, version),
		ExamplesDir:   base,
		Record:        rec,
	}, nil
}

// Exists reports whether name is a built-in library or a registered external
// library. With includeDisabled, disabled external records count as well.
// It is meant for existence checks only; content is served through Locate.
func (l *Locator) Exists(ctx context.Context, name string, includeDisabled bool) (bool, error) {
	if l.HasBuiltin(name) {
		return true, nil
	}
	rec, err := l.lookup(ctx, name, includeDisabled)
	return rec != nil, err
}

func (l *Locator) lookup(ctx context.Context, name string, includeDisabled bool) (*metadata.Record, error) {
	if l.gateway == nil {
		return nil, nil
	}
	rec, err := l.gateway.FindAnyByName(ctx, name, includeDisabled)
	if err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeMetadata, err, "Library metadata is unavailable.")
	}
	return rec, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
