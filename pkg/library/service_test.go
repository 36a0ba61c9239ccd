package library

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	liberrors "github.com/codebender/eratosthenes/pkg/errors"
	"github.com/codebender/eratosthenes/pkg/metadata"
	"github.com/codebender/eratosthenes/pkg/observability"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	roots := Roots{Builtin: t.TempDir(), External: t.TempDir()}
	writeTree(t, roots.Builtin, map[string]string{
		"libraries/Servo/Servo.cpp":                "// servo\n",
		"libraries/Servo/Servo.h":                  "// servo header\n",
		"libraries/Servo/examples/Sweep/Sweep.ino": "void loop() {}\n",
		"libraries/Robot_Control/ArduinoRobot.h":   "// robot\n",
		"libraries/Empty/.keep":                    "",
	})
	writeTree(t, roots.External, map[string]string{
		"Blynk/1.0/BlynkSimpleEthernet.h":         "// blynk\n",
		"Blynk/1.0/examples/Blink/Blink.ino":      "// v1 example\n",
		"Blynk/examples/GettingStarted/Start.ino": "// shared example\n",
		"Blynk/examples/GettingStarted/Start.h":   "// not a sketch\n",
		"NoMeta/2.0/NoMeta.h":                     "// no meta\n",
	})
	gw := metadata.NewMemoryGateway(
		metadata.Record{MachineName: "Blynk", Active: true, Meta: map[string]any{"description": "IoT"}},
		metadata.Record{MachineName: "NoMeta", Active: true},
		metadata.Record{MachineName: "Retired", Active: false},
	)
	return NewService(Options{Roots: roots, Gateway: gw, Logger: log.New(io.Discard)})
}

func TestListBuiltinManifest(t *testing.T) {
	resp := newTestService(t).List(context.Background(), Request{Library: "Servo"})

	if !resp.Success || resp.Message != MessageFound {
		t.Fatalf("resp = %+v, want success", resp)
	}
	if got, want := filenames(resp.Files), []string{"Servo.cpp", "Servo.h"}; !slices.Equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
	if resp.Examples != nil || resp.View {
		t.Error("manifest response should not carry examples")
	}
}

func TestListPathQualifiedAndAliased(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bare := svc.List(ctx, Request{Library: "Servo"})
	qualified := svc.List(ctx, Request{Library: "arduino/libraries/Servo"})
	if !slices.Equal(filenames(bare.Files), filenames(qualified.Files)) {
		t.Errorf("qualified reference differs: %v vs %v", filenames(qualified.Files), filenames(bare.Files))
	}

	robot := svc.List(ctx, Request{Library: "ArduinoRobot"})
	if !robot.Success || !slices.Equal(filenames(robot.Files), []string{"ArduinoRobot.h"}) {
		t.Errorf("alias not applied: %+v", robot)
	}

	notAliased := svc.List(ctx, Request{Library: "ArduinoRobotX"})
	if notAliased.Success || notAliased.Code != liberrors.ErrCodeLibraryNotFound {
		t.Errorf("ArduinoRobotX should not be aliased: %+v", notAliased)
	}
}

func TestListBuiltinView(t *testing.T) {
	resp := newTestService(t).List(context.Background(), Request{Library: "Servo", RenderView: true})

	if !resp.Success || !resp.View {
		t.Fatalf("resp = %+v, want view success", resp)
	}
	if resp.Library != "Servo" {
		t.Errorf("library = %q", resp.Library)
	}
	if got := filenames(resp.Examples); !slices.Equal(got, []string{"examples/Sweep/Sweep.ino"}) {
		t.Errorf("examples = %v", got)
	}
	if resp.Meta == nil || len(resp.Meta) != 0 {
		t.Errorf("built-in meta = %v, want empty object", resp.Meta)
	}
}

func TestListBuiltinEmpty(t *testing.T) {
	resp := newTestService(t).List(context.Background(), Request{Library: "Empty"})
	if !resp.Success || len(resp.Files) != 0 {
		t.Errorf("empty built-in should succeed with no files: %+v", resp)
	}
}

func TestListExternal(t *testing.T) {
	resp := newTestService(t).List(context.Background(), Request{Library: "Blynk", Version: "1.0"})

	if !resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
	if got := filenames(resp.Files); !slices.Equal(got, []string{"BlynkSimpleEthernet.h"}) {
		t.Errorf("files = %v", got)
	}
}

func TestListExternalView(t *testing.T) {
	resp := newTestService(t).List(context.Background(), Request{Library: "vendor/Blynk", Version: "1.0", RenderView: true})

	if !resp.Success || resp.Library != "Blynk" {
		t.Fatalf("resp = %+v", resp)
	}
	want := []string{"1.0/examples/Blink/Blink.ino", "examples/GettingStarted/Start.ino"}
	if got := filenames(resp.Examples); !slices.Equal(got, want) {
		t.Errorf("examples = %v, want %v", got, want)
	}
	if resp.Meta["description"] != "IoT" {
		t.Errorf("meta = %v", resp.Meta)
	}

	noMeta := newTestService(t).List(context.Background(), Request{Library: "NoMeta", Version: "2.0", RenderView: true})
	if !noMeta.Success || noMeta.Meta == nil {
		t.Errorf("record without meta should yield empty meta: %+v", noMeta)
	}
}

func TestListFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		code    liberrors.Code
		message []string
	}{
		{"unknown library", Request{Library: "Nope"}, liberrors.ErrCodeLibraryNotFound, []string{"No Library named Nope found."}},
		{"disabled library", Request{Library: "Retired", Version: "1.0"}, liberrors.ErrCodeLibraryNotFound, []string{"Retired"}},
		{"unknown version", Request{Library: "Blynk", Version: "1.2", RenderView: true}, liberrors.ErrCodeVersionNotFound, []string{"`Blynk`", "`1.2`"}},
		{"missing version", Request{Library: "Blynk"}, liberrors.ErrCodeInvalidVersion, []string{"Blynk"}},
		{"empty reference", Request{}, liberrors.ErrCodeInvalidInput, nil},
		{"trailing slash", Request{Library: "vendor/"}, liberrors.ErrCodeInvalidLibrary, nil},
		{"traversal name", Request{Library: ".."}, liberrors.ErrCodeInvalidLibrary, nil},
		{"traversal version", Request{Library: "Blynk", Version: "../../etc"}, liberrors.ErrCodeInvalidVersion, nil},
	}

	svc := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := svc.List(context.Background(), tt.req)
			if resp.Success {
				t.Fatalf("resp = %+v, want failure", resp)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
			for _, m := range tt.message {
				if !strings.Contains(resp.Message, m) {
					t.Errorf("message %q should contain %q", resp.Message, m)
				}
			}
			if resp.Files != nil {
				t.Errorf("failure carries files: %v", resp.Files)
			}
		})
	}
}

func TestListVersionMessageDistinct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	noLib := svc.List(ctx, Request{Library: "Nope", Version: "1.2"})
	noVer := svc.List(ctx, Request{Library: "Blynk", Version: "1.2"})
	if noLib.Message == noVer.Message {
		t.Errorf("library and version failures share message %q", noLib.Message)
	}
}

func TestResponseJSON(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	decode := func(r Response) map[string]any {
		t.Helper()
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return m
	}
	keys := func(m map[string]any) []string {
		var ks []string
		for k := range m {
			ks = append(ks, k)
		}
		slices.Sort(ks)
		return ks
	}

	manifest := decode(svc.List(ctx, Request{Library: "Servo"}))
	if got := keys(manifest); !slices.Equal(got, []string{"files", "message", "success"}) {
		t.Errorf("manifest keys = %v", got)
	}
	files := manifest["files"].([]any)
	first := files[0].(map[string]any)
	if _, ok := first["filename"]; !ok {
		t.Errorf("file entry = %v, want filename key", first)
	}
	if _, ok := first["content"]; !ok {
		t.Errorf("file entry = %v, want content key", first)
	}

	view := decode(svc.List(ctx, Request{Library: "Servo", RenderView: true}))
	if got := keys(view); !slices.Equal(got, []string{"examples", "files", "library", "meta", "success"}) {
		t.Errorf("view keys = %v", got)
	}
	if _, ok := view["meta"].(map[string]any); !ok {
		t.Errorf("meta should encode as an object: %v", view["meta"])
	}

	failure := decode(svc.List(ctx, Request{Library: "Nope"}))
	if got := keys(failure); !slices.Equal(got, []string{"message", "success"}) {
		t.Errorf("failure keys = %v", got)
	}
	if failure["success"] != false {
		t.Errorf("failure success = %v", failure["success"])
	}

	empty := decode(Response{Success: true, View: true, Library: "X"})
	if _, ok := empty["examples"].([]any); !ok {
		t.Errorf("missing examples should encode as [], got %v", empty["examples"])
	}
}

func TestManifestEntryJSON(t *testing.T) {
	data, err := json.Marshal(FileEntry{Filename: "a.h"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"filename":"a.h"}` {
		t.Errorf("manifest entry = %s", data)
	}

	empty := ""
	data, _ = json.Marshal(FileEntry{Filename: "b.h", Content: &empty})
	if string(data) != `{"filename":"b.h","content":""}` {
		t.Errorf("empty text entry = %s", data)
	}
}

func TestListConcurrent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if r := svc.List(ctx, Request{Library: "Servo", RenderView: true}); !r.Success {
				errs <- r.Message
			}
		}()
		go func() {
			defer wg.Done()
			if r := svc.List(ctx, Request{Library: "Blynk", Version: "1.0"}); !r.Success {
				errs <- r.Message
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Errorf("concurrent List failed: %s", msg)
	}
}

func TestFailureFromPlainError(t *testing.T) {
	resp := Failure(context.Canceled)
	if resp.Success || resp.Code != liberrors.ErrCodeInternal || resp.Message != context.Canceled.Error() {
		t.Errorf("Failure(plain) = %+v", resp)
	}
}

type resolveEvent struct {
	library, kind string
	files         int
	failed        bool
}

type recordingResolveHooks struct {
	observability.NoopResolveHooks
	mu     sync.Mutex
	starts int
	events []resolveEvent
}

func (h *recordingResolveHooks) OnResolveStart(context.Context, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
}

func (h *recordingResolveHooks) OnResolveComplete(_ context.Context, library, kind string, files int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, resolveEvent{library: library, kind: kind, files: files, failed: err != nil})
}

func TestListEmitsResolveHooks(t *testing.T) {
	hooks := &recordingResolveHooks{}
	observability.SetResolveHooks(hooks)
	t.Cleanup(observability.Reset)

	svc := newTestService(t)
	svc.List(context.Background(), Request{Library: "Blynk", Version: "1.0"})
	svc.List(context.Background(), Request{Library: "Missing"})

	if hooks.starts != 2 || len(hooks.events) != 2 {
		t.Fatalf("starts=%d events=%v, want 2 of each", hooks.starts, hooks.events)
	}
	if e := hooks.events[0]; e.kind != "external" || e.files == 0 || e.failed {
		t.Errorf("success event = %+v", e)
	}
	if e := hooks.events[1]; e.kind != "" || !e.failed {
		t.Errorf("failure event = %+v", e)
	}
}
