package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/macinstall/internal/packages"
)

func simplenote() packages.Record {
	return packages.Record{
		FullName: "Simplenote",
		Name:     "Simplenote",
		Type:     packages.TypeMas,
		MasID:    "692867256",
	}
}

func TestMas_InstallUnchangedWhenListed(t *testing.T) {
	s := newSim(t)
	deps, _ := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app

	outcome, err := NewMas(simplenote(), deps).Install()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Unchanged {
		t.Errorf("Install() = %v, want unchanged", outcome)
	}
	if m := s.mutating(); len(m) != 0 {
		t.Errorf("Install() ran mutating commands: %q", m)
	}
}

func TestMas_InstallFailureWhenNotSignedIn(t *testing.T) {
	s := newSim(t)
	s.fail("mas install 692867256", 1, "Error: Not signed in")
	deps, buf := testDeps(t, s)

	outcome, err := NewMas(simplenote(), deps).Install()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Failed {
		t.Errorf("Install() = %v, want failed", outcome)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("stderr not logged:\n%s", buf.String())
	}
}

func TestMas_RemoveDeletesBundleAndEmptiesTrash(t *testing.T) {
	s := newSim(t)
	deps, buf := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app
	junk := filepath.Join(deps.Paths.Trash, "old.txt")
	if err := os.WriteFile(junk, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	outcome, err := NewMas(simplenote(), deps).Remove()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Changed {
		t.Fatalf("Remove() = %v, want changed", outcome)
	}

	if s.count("sudo rm -rf "+app) != 1 {
		t.Errorf("bundle not removed via sudo rm: %q", s.commands())
	}
	if s.count("sudo rm -rf "+junk) != 1 {
		t.Errorf("trash not emptied: %q", s.commands())
	}
	if _, err := os.Stat(junk); !os.IsNotExist(err) {
		t.Error("trash entry survived")
	}
	if !strings.Contains(buf.String(), "destructive") {
		t.Error("expected destructive removal warning")
	}
}

func TestMas_RemoveWithEmptyTrashSkipsPurge(t *testing.T) {
	s := newSim(t)
	deps, _ := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app

	if outcome, err := NewMas(simplenote(), deps).Remove(); err != nil || outcome != Changed {
		t.Fatalf("Remove() = %v, %v", outcome, err)
	}

	want := []string{"mas list", "sudo rm -rf " + app, "mas list"}
	if got := s.commands(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestMas_RemoveAbsentIsUnchanged(t *testing.T) {
	s := newSim(t)
	deps, _ := testDeps(t, s)

	outcome, err := NewMas(simplenote(), deps).Remove()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Unchanged {
		t.Errorf("Remove() = %v, want unchanged", outcome)
	}
	if m := s.mutating(); len(m) != 0 {
		t.Errorf("Remove() ran mutating commands: %q", m)
	}
}

func TestMas_RemoveWithoutNameFails(t *testing.T) {
	s := newSim(t)
	deps, buf := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app

	rec := simplenote()
	rec.Name = ""
	outcome, err := NewMas(rec, deps).Remove()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Failed {
		t.Errorf("Remove() = %v, want failed", outcome)
	}
	if m := s.mutating(); len(m) != 0 {
		t.Errorf("Remove() ran mutating commands: %q", m)
	}
	if !strings.Contains(buf.String(), "no name") {
		t.Errorf("expected failure reason in log:\n%s", buf.String())
	}
}

func TestMas_InstallFromScratch(t *testing.T) {
	s := newSim(t)
	s.storeCatalog["692867256"] = "Simplenote"
	deps, _ := testDeps(t, s)

	outcome, err := NewMas(simplenote(), deps).Install()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Changed {
		t.Errorf("Install() = %v, want changed", outcome)
	}

	want := []string{"mas list", "mas install 692867256", "mas list"}
	if got := s.commands(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("commands = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(deps.Paths.Applications, "Simplenote.app")); err != nil {
		t.Errorf("app bundle missing after install: %v", err)
	}
}

func TestMas_InstallVerificationMismatch(t *testing.T) {
	s := newSim(t)
	s.storeCatalog["692867256"] = "Simplenote"
	s.lie["mas install 692867256"] = true
	deps, buf := testDeps(t, s)

	outcome, err := NewMas(simplenote(), deps).Install()
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if outcome != Failed {
		t.Errorf("Install() = %v, want failed", outcome)
	}
	if !strings.Contains(buf.String(), "verification disagrees") {
		t.Errorf("expected verification warning, got:\n%s", buf.String())
	}
}

func TestMas_RemoveVerificationMismatch(t *testing.T) {
	s := newSim(t)
	deps, buf := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app
	s.lie["sudo rm -rf "+app] = true
	junk := filepath.Join(deps.Paths.Trash, "old.txt")
	if err := os.WriteFile(junk, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	outcome, err := NewMas(simplenote(), deps).Remove()
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if outcome != Failed {
		t.Errorf("Remove() = %v, want failed", outcome)
	}
	if !strings.Contains(buf.String(), "verification disagrees") {
		t.Errorf("expected verification warning, got:\n%s", buf.String())
	}
	// the Trash is only emptied after a confirmed removal
	if n := s.count("sudo rm -rf " + junk); n != 0 {
		t.Errorf("trash emptied after failed removal: %q", s.commands())
	}
	if _, err := os.Stat(junk); err != nil {
		t.Errorf("trash entry removed: %v", err)
	}
}

func TestMas_RemoveEmptiesBracketedTrashOnly(t *testing.T) {
	s := newSim(t)
	deps, _ := testDeps(t, s)
	app := filepath.Join(deps.Paths.Applications, "Simplenote.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatal(err)
	}
	s.storeApps["692867256"] = app

	root := filepath.Dir(deps.Paths.Trash)
	deps.Paths.Trash = filepath.Join(root, "Trash [old]")
	// matched by the unescaped pattern "Trash [old]"
	sibling := filepath.Join(root, "Trash o")
	for _, dir := range []string{deps.Paths.Trash, sibling} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "old.txt"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if outcome, err := NewMas(simplenote(), deps).Remove(); err != nil || outcome != Changed {
		t.Fatalf("Remove() = %v, %v", outcome, err)
	}

	junk := filepath.Join(deps.Paths.Trash, "old.txt")
	if s.count("sudo rm -rf "+junk) != 1 {
		t.Errorf("trash not emptied: %q", s.commands())
	}
	if _, err := os.Stat(filepath.Join(sibling, "old.txt")); err != nil {
		t.Errorf("sibling directory was emptied: %v", err)
	}
}
