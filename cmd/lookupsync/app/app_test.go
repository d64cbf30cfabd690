package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/lookupsync/internal/stores"
	"github.com/agentstation/lookupsync/internal/stores/memory"
	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

const colorsID = "5d41402a-bc4b-4a76-b971-9d911017c592"

// newStore builds one side of a run: a Colors target list and a Products
// master list whose Color field is of the given kind.
func newStore(name string, kind lists.FieldKind, colors ...string) *memory.Store {
	s := memory.New(name)

	records := make([]lists.Record, 0, len(colors))
	for i, c := range colors {
		records = append(records, lists.NewRecord(100+i, map[string]any{"Title": c}))
	}
	s.AddList("Colors", colorsID, []lists.Field{{InternalName: "Title", Title: "Title", Kind: lists.FieldKindText}}, records...)

	s.AddList("Products", "", []lists.Field{
		{InternalName: "Title", Title: "Title", Kind: lists.FieldKindText},
		{InternalName: "Color", Title: "Color", Kind: kind, LookupList: colorsID},
	}, lists.NewRecord(1, map[string]any{"Title": "Foo", "Color": lookup.PlainReference{LookupID: 100}}))
	return s
}

func newTestApp(t *testing.T, source, destination *memory.Store) *App {
	t.Helper()
	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(&Config{LogFormat: "json", LogOutput: "discard", Format: "text"}),
		WithLogger(&logger),
		WithStoreOpener(func(role, _ string, _ transport.Credential) (stores.Store, error) {
			if role == constants.SourceStore {
				return source, nil
			}
			return destination, nil
		}),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app
}

func syncArgs(extra ...string) []string {
	args := []string{"sync", "--source", "src.db", "--destination", "dst.db", "-m", "Products", "-l", "Color", "--log-level", "error"}
	return append(args, extra...)
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_Options verifies option validation.
func TestApp_Options(t *testing.T) {
	if _, err := New("dev", "", "", "", WithConfig(nil)); err == nil {
		t.Error("WithConfig(nil) should fail")
	}
	if _, err := New("dev", "", "", "", WithStoreOpener(nil)); err == nil {
		t.Error("WithStoreOpener(nil) should fail")
	}
}

// TestApp_ExecuteApply runs a full sync through the root command.
func TestApp_ExecuteApply(t *testing.T) {
	source := newStore(constants.SourceStore, lists.FieldKindLookup, "Red")
	destination := newStore(constants.DestinationStore, lists.FieldKindLookup, "Blue", "Red")
	app := newTestApp(t, source, destination)

	if err := app.Execute(context.Background(), syncArgs()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	written := destination.Written()
	if len(written) != 1 {
		t.Fatalf("written = %d, want 1", len(written))
	}
	if got := lookup.Plain.Extract(written[0].Value); len(got) != 1 || got[0] != 101 {
		t.Errorf("written value = %v, want [101]", got)
	}
	if !source.Closed() || !destination.Closed() {
		t.Error("stores were not closed")
	}
}

// TestApp_ExecuteLookupFieldError verifies that an unusable lookup field is not a failure.
func TestApp_ExecuteLookupFieldError(t *testing.T) {
	source := newStore(constants.SourceStore, lists.FieldKindLookup, "Red")
	destination := newStore(constants.DestinationStore, lists.FieldKindText, "Red")
	app := newTestApp(t, source, destination)

	err := app.Execute(context.Background(), syncArgs())
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if destination.StageCalls() != 0 {
		t.Error("nothing should be staged")
	}
}

// TestApp_ExecuteAmbiguous verifies duplicate mappings fail without writes.
func TestApp_ExecuteAmbiguous(t *testing.T) {
	source := newStore(constants.SourceStore, lists.FieldKindLookup, "Red")
	destination := newStore(constants.DestinationStore, lists.FieldKindLookup, "Red", "Red")
	app := newTestApp(t, source, destination)

	err := app.Execute(context.Background(), syncArgs("-s"))
	if !errors.IsAmbiguous(err) {
		t.Fatalf("Execute() = %v, want ambiguity error", err)
	}
	if ExitCode(err) != ExitAmbiguous {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitAmbiguous)
	}
	if len(destination.Written()) != 0 {
		t.Error("nothing should be written")
	}
}

// TestApp_ExecuteMissingFlags verifies required flags.
func TestApp_ExecuteMissingFlags(t *testing.T) {
	app := newTestApp(t, memory.New("s"), memory.New("d"))
	err := app.Execute(context.Background(), []string{"sync", "--source", "a", "--destination", "b"})
	if err == nil || !strings.Contains(err.Error(), "master") {
		t.Errorf("Execute() = %v, want required flag error", err)
	}
}

// TestApp_Shutdown verifies that Shutdown closes every opened store.
func TestApp_Shutdown(t *testing.T) {
	source := memory.New(constants.SourceStore)
	destination := memory.New(constants.DestinationStore)
	app := newTestApp(t, source, destination)

	if _, err := app.OpenStore(constants.SourceStore, "a", transport.Credential{}); err != nil {
		t.Fatal(err)
	}
	if _, err := app.OpenStore(constants.DestinationStore, "b", transport.Credential{}); err != nil {
		t.Fatal(err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if !source.Closed() || !destination.Closed() {
		t.Error("Shutdown() did not close the stores")
	}
}

// TestExitCode verifies the exit status of each error class.
func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"lookup field", errors.NewMissingFieldError("source", "Color"), ExitOK},
		{"ambiguous", fmt.Errorf("run: %w", &errors.AmbiguityError{Phase: "master"}), ExitAmbiguous},
		{"remote", errors.NewAPIError("destination", 500, "boom"), ExitError},
		{"validation", errors.NewValidationError("master", "", "required"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestPrintError verifies that every duplicate group is printed.
func TestPrintError(t *testing.T) {
	err := &errors.AmbiguityError{
		Phase: "lookup",
		Groups: []errors.DuplicateGroup{
			{SourceID: 1, SourceTitle: "A", DestinationIDs: []int{10, 11}},
			{SourceID: 2, SourceTitle: "B", DestinationIDs: []int{10, 11}},
		},
	}

	var buf bytes.Buffer
	PrintError(&buf, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %q", len(lines), buf.String())
	}
	if lines[0] != `duplicate lookup mapping: source 1 "A" maps to destinations [10, 11]` {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[2] != "2 duplicate lookup mapping(s) found" {
		t.Errorf("last line = %q", lines[2])
	}
}

// TestApp_VersionCommand verifies the version output.
func TestApp_VersionCommand(t *testing.T) {
	app := newTestApp(t, memory.New("s"), memory.New("d"))
	cmd := app.CreateVersionCommand()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"lookupsync version 1.0.0", "commit: abc123", "built: 2024-01-01", "built by: test"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestApp_ExecuteExplicitConfigFile verifies that --config endpoints reach
// the stores and that command-line flags still win over the file.
func TestApp_ExecuteExplicitConfigFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "prod.yaml")
	if err := os.WriteFile(path, []byte("source: prod-src.db\ndestination: prod-dst.db\nformat: yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	source := newStore(constants.SourceStore, lists.FieldKindLookup, "Red")
	destination := newStore(constants.DestinationStore, lists.FieldKindLookup, "Red")
	opened := map[string]string{}

	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test",
		WithConfig(&Config{
			Source:      "home-src.db",
			Destination: "home-dst.db",
			Format:      "text",
			LogFormat:   "json",
			LogOutput:   "discard",
		}),
		WithLogger(&logger),
		WithStoreOpener(func(role, endpoint string, _ transport.Credential) (stores.Store, error) {
			opened[role] = endpoint
			if role == constants.SourceStore {
				return source, nil
			}
			return destination, nil
		}),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	args := []string{"--config", path, "-o", "json", "sync", "-m", "Products", "-l", "Color", "-s", "--log-level", "error"}
	if err := app.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if opened[constants.SourceStore] != "prod-src.db" || opened[constants.DestinationStore] != "prod-dst.db" {
		t.Errorf("opened = %v, want the endpoints of %s", opened, path)
	}
	if app.Config().Format != "json" {
		t.Errorf("Format = %s, want the -o flag to win over the file", app.Config().Format)
	}
}
