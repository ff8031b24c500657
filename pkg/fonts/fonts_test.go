package fonts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("font"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCandidates(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux"} {
		list := Candidates(goos)
		if len(list) == 0 {
			t.Errorf("%s: no candidates", goos)
		}
	}
	if got := Candidates("windows")[0]; !strings.HasSuffix(got, "msyh.ttc") {
		t.Errorf("windows should prefer msyh.ttc, got %s", got)
	}
	if len(Candidates("plan9")) != len(Candidates("linux")) {
		t.Error("unknown systems should use the linux list")
	}

	list := Candidates("linux")
	list[0] = "changed"
	if Candidates("linux")[0] == "changed" {
		t.Error("Candidates must return a copy")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	ttc := touch(t, dir, "cjk.ttc")
	ttf := touch(t, dir, "latin.TTF")
	missing := filepath.Join(dir, "missing.ttf")
	list := []string{missing, ttc, ttf}

	if got := find("", list, nil); got != ttc {
		t.Errorf("find() = %q, want %q", got, ttc)
	}
	if got := find("", list, []string{".ttf"}); got != ttf {
		t.Errorf("find(.ttf) = %q, want %q", got, ttf)
	}
	if got := find(ttf, list, nil); got != ttf {
		t.Errorf("override ignored: %q", got)
	}
	if got := find(missing, list, nil); got != ttc {
		t.Errorf("missing override should fall through, got %q", got)
	}
	if got := find(dir, nil, nil); got != "" {
		t.Errorf("directory accepted as font: %q", got)
	}
	if got := find("", []string{missing}, nil); got != "" {
		t.Errorf("find() = %q, want empty", got)
	}
}
