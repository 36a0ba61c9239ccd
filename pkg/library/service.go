package library

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/codebender/eratosthenes/pkg/content"
	liberrors "github.com/codebender/eratosthenes/pkg/errors"
	"github.com/codebender/eratosthenes/pkg/metadata"
	"github.com/codebender/eratosthenes/pkg/observability"
)

// MessageFound is the message of a successful manifest response.
const MessageFound = "Library found"

// Request asks for the files of one library.
type Request struct {
	// Library is the reference, possibly path qualified ("vendor/Name").
	Library string `json:"library"`
	// Version selects the external library version. Ignored for built-ins.
	Version string `json:"version,omitempty"`
	// RenderView adds examples and metadata to the response. Default false.
	RenderView bool `json:"renderView,omitempty"`
}

// Result is a successful resolution.
type Result struct {
	Library  Resolved
	Files    []FileEntry
	Examples []FileEntry
	Meta     map[string]any
}

// Response is the editor-facing outcome of a List call. It encodes to one of
//
//	{success: true, message: "Library found", files}
//	{success: true, library, files, examples, meta}
//	{success: false, message}
type Response struct {
	Success  bool
	Message  string
	Library  string
	Files    []FileEntry
	Examples []FileEntry
	Meta     map[string]any
	// View marks a full view response.
	View bool
	// Code classifies a failure. It is not encoded.
	Code liberrors.Code
}

// MarshalJSON encodes the response shape selected by Success and View.
func (r Response) MarshalJSON() ([]byte, error) {
	switch {
	case !r.Success:
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}{false, r.Message})
	case !r.View:
		return json.Marshal(struct {
			Success bool        `json:"success"`
			Message string      `json:"message"`
			Files   []FileEntry `json:"files"`
		}{true, r.Message, nonNil(r.Files)})
	default:
		meta := r.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		return json.Marshal(struct {
			Success  bool           `json:"success"`
			Library  string         `json:"library"`
			Files    []FileEntry    `json:"files"`
			Examples []FileEntry    `json:"examples"`
			Meta     map[string]any `json:"meta"`
		}{true, r.Library, nonNil(r.Files), nonNil(r.Examples), meta})
	}
}

func nonNil(entries []FileEntry) []FileEntry {
	if entries == nil {
		return []FileEntry{}
	}
	return entries
}

// Options configures a Service.
type Options struct {
	Roots   Roots
	Gateway metadata.Gateway
	// Sniffer classifies file content. Default content.DetectSniffer.
	Sniffer content.Sniffer
	// Logger receives debug resolution logs. Default log.Default().
	Logger *log.Logger
}

// Service resolves library requests. It is safe for concurrent use.
type Service struct {
	locator   *Locator
	collector *Collector
	logger    *log.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Service{
		locator:   NewLocator(opts.Roots, opts.Gateway),
		collector: NewCollector(opts.Sniffer),
		logger:    opts.Logger,
	}
}

// Locator returns the service's locator.
func (s *Service) Locator() *Locator { return s.locator }

// Resolve locates the library named by req and collects its files, plus
// examples and metadata when req.RenderView is set.
//
// External libraries whose version directory yields no files fail with
// VERSION_NOT_FOUND. Examples are collected for any located library; the
// registry active flag is only consulted by the locator.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.Library == "" {
		return nil, liberrors.New(liberrors.ErrCodeInvalidInput, "A library name is required.")
	}
	name := CanonicalName(req.Library)
	if err := liberrors.ValidateLibraryName(name); err != nil {
		return nil, err
	}
	if err := liberrors.ValidateVersion(req.Version); err != nil {
		return nil, err
	}

	lib, err := s.locator.Locate(ctx, name, req.Version)
	if err != nil {
		return nil, err
	}

	files, err := s.collector.Files(ctx, lib.Dir, true)
	if err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeInternal, err, "Could not read files of Library named `%s`.", name)
	}
	if lib.Kind == External && len(files) == 0 {
		return nil, errVersionNotFound(name, req.Version)
	}

	res := &Result{Library: *lib, Files: files}
	if !req.RenderView {
		return res, nil
	}

	res.Examples, err = s.collector.Examples(ctx, lib.ExamplesDir)
	if err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeInternal, err, "Could not read examples of Library named `%s`.", name)
	}
	res.Meta = map[string]any{}
	if lib.Record != nil {
		res.Library.CanonicalName = lib.Record.MachineName
		if lib.Record.Meta != nil {
			res.Meta = lib.Record.Meta
		}
	}
	return res, nil
}

// List resolves req and assembles the response. It never returns a partial
// success: any failure yields Success false with a message naming the
// library (and version, where relevant).
func (s *Service) List(ctx context.Context, req Request) Response {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, req.Library, req.Version)
	res, err := s.Resolve(ctx, req)
	if err != nil {
		hooks.OnResolveComplete(ctx, req.Library, "", 0, time.Since(start), err)
		s.logger.Debug("library not resolved",
			"library", req.Library,
			"version", req.Version,
			"code", liberrors.GetCode(err),
			"err", err)
		return Failure(err)
	}

	hooks.OnResolveComplete(ctx, req.Library, res.Library.Kind.String(), len(res.Files), time.Since(start), nil)
	s.logger.Debug("resolved library",
		"library", res.Library.CanonicalName,
		"kind", res.Library.Kind,
		"files", len(res.Files),
		"examples", len(res.Examples),
		"duration", time.Since(start).Round(time.Microsecond))

	if !req.RenderView {
		return Response{Success: true, Message: MessageFound, Files: res.Files}
	}
	return Response{
		Success:  true,
		Library:  res.Library.CanonicalName,
		Files:    res.Files,
		Examples: res.Examples,
		Meta:     res.Meta,
		View:     true,
	}
}

// Failure converts err into a failure response.
func Failure(err error) Response {
	code := liberrors.GetCode(err)
	if code == "" {
		code = liberrors.ErrCodeInternal
	}
	return Response{Message: liberrors.UserMessage(err), Code: code}
}
