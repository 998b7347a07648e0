package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootInitThenConfigShow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")

	out, err := executeRoot(t, "--project", dir, "init")
	if err != nil {
		t.Fatalf("init: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Initialized project at") {
		t.Fatalf("unexpected init output:\n%s", out)
	}
	for _, name := range []string{"shortsmith.yaml", ".env", "backgrounds", "shorts", ".shortsmith"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	out, err = executeRoot(t, "--project", dir, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "width: 1080") || !strings.Contains(out, "height: 1920") {
		t.Fatalf("config show missing frame size:\n%s", out)
	}
}

func TestRootConfigInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	out, err := executeRoot(t, "--project", dir, "config", "init")
	if err != nil || !strings.Contains(out, "Wrote") {
		t.Fatalf("first config init: %v\n%s", err, out)
	}
	out, err = executeRoot(t, "--project", dir, "config", "init")
	if err != nil || !strings.Contains(out, "already exists") {
		t.Fatalf("second config init: %v\n%s", err, out)
	}
}

func TestRootHistoryWithoutDatabase(t *testing.T) {
	dir := t.TempDir()

	out, err := executeRoot(t, "--project", dir, "--json", "history")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("got %q, want []", out)
	}
}

func TestRootComposeRequiresAudio(t *testing.T) {
	_, err := executeRoot(t, "--project", t.TempDir(), "compose")
	if err == nil || !strings.Contains(err.Error(), "no narration") {
		t.Fatalf("err = %v, want missing narration", err)
	}
}
