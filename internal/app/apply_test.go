package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/blackwell-systems/macinstall/internal/installer"
	"github.com/blackwell-systems/macinstall/internal/packages"
)

const brewDocument = `[
	{"full_name": "GNU Wget", "name": "wget", "package_type": "brew", "state": "present"},
	{"name": "lzip", "package_type": "brew", "state": "absent"}
]`

func TestApply(t *testing.T) {
	env := newTestEnv(t)
	doc := env.write("packages.json", brewDocument)
	env.fake.
		OK("brew list", "").
		OK("brew list", "wget\n")

	out, err := env.run("apply", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "install wget\n1 changed, 1 unchanged, 0 failed\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if env.fake.Count("brew install wget") != 1 {
		t.Errorf("expected wget to be installed, commands: %q", env.fake.Commands())
	}
	if env.fake.Count("brew uninstall lzip") != 0 {
		t.Error("absent package was removed")
	}
}

func TestApply_DryRun(t *testing.T) {
	env := newTestEnv(t)
	doc := env.write("packages.json", brewDocument)
	env.fake.OK("brew list", "")

	out, err := env.run("apply", "--dry-run", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "would install wget\n1 to change, 1 unchanged, 0 failed\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	for _, c := range env.fake.Commands() {
		if c != "brew list" {
			t.Errorf("dry run executed %q", c)
		}
	}
}

func TestApply_DefaultDocument(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("apply", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "would install atom\n1 to change, 2 unchanged, 0 failed\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApply_FailedPackageDoesNotFailCommand(t *testing.T) {
	env := newTestEnv(t)
	doc := env.write("packages.yaml", `
- name: wget
  package_type: brew
- name: jq
  package_type: brew
`)
	env.fake.
		OK("brew list", "").
		Fail("brew install wget", 1, "Error: No available formula with the name \"wget\"")

	out, err := env.run("apply", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "failed install wget") {
		t.Errorf("expected failure line, got:\n%s", out)
	}
	if env.fake.Count("brew install jq") != 1 {
		t.Error("package after a failure was not processed")
	}
	if !strings.Contains(env.logs.String(), "No available formula") {
		t.Errorf("expected stderr in logs:\n%s", env.logs.String())
	}
}

func TestApply_FatalErrorStopsRun(t *testing.T) {
	env := newTestEnv(t)
	doc := env.write("packages.json", `[
		{"name": "myapp", "package_type": "brewcasklocal"},
		{"name": "wget", "package_type": "brew"}
	]`)
	env.fake.Fail("git clone git@github.com:tflynn/private_casks.git", 128, "Permission denied (publickey)")

	_, err := env.run("apply", doc)
	if !errors.Is(err, installer.ErrFatal) {
		t.Fatalf("expected ErrFatal, got %v", err)
	}
	if env.fake.Count("brew list") != 0 {
		t.Error("packages after a fatal error were processed")
	}
}

func TestApply_ParseError(t *testing.T) {
	env := newTestEnv(t)
	doc := env.write("packages.json", `[{"name": `)

	_, err := env.run("apply", doc)
	if !errors.Is(err, packages.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if len(env.fake.Calls()) != 0 {
		t.Errorf("commands ran for an unparseable document: %q", env.fake.Commands())
	}
}

func TestApply_MissingDocument(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("apply", "/nonexistent/packages.json")
	if err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestApplyCommandFlags(t *testing.T) {
	for _, name := range []string{"dry-run", "record"} {
		flag := applyCmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected flag '%s' to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected flag '%s' to have usage text", name)
		}
	}
}
