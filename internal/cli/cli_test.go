package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/testpkg"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// setupEnv points every root and the config file at a temp directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	for _, name := range []string{"preinstalled", "packages", "settings", "cache", "staging"} {
		t.Setenv(branding.EnvVar(name), filepath.Join(base, name))
	}
	t.Setenv(branding.EnvVar("log_level"), "off")
	viper.Reset()
	t.Cleanup(viper.Reset)
	return base
}

// run executes the root command and returns what it printed to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	installYes = false
	listTypeFilter = ""
	listJSON = false
	statsTextfile = ""
	logLevelFlag = ""

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"nope\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var w bytes.Buffer
		if got := confirm(strings.NewReader(tt.input), &w); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInstallListUninstall(t *testing.T) {
	base := setupEnv(t)
	pkg := testpkg.Write(t, base, "demo.spkg", testpkg.Pkg{ID: "X1", Name: "Demo", Version: "1.0.0", Capability: "ocr"})

	out, err := run(t, "", "install", pkg)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !strings.Contains(out, "Installed Demo v1.0.0") {
		t.Errorf("install output = %q, want installed message", out)
	}
	installed := filepath.Join(base, "packages", "demo_X1")
	if !fsutil.DirExists(installed) {
		t.Fatalf("expected %s to exist", installed)
	}

	out, err = run(t, "", "list", "--type", "ocr")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Demo") || !strings.Contains(out, "demo_X1") {
		t.Errorf("list output = %q, want Demo in demo_X1", out)
	}

	out, err = run(t, "", "list", "--type", "tts")
	if err != nil {
		t.Fatalf("list tts: %v", err)
	}
	if !strings.Contains(out, "No installed plugins matching") {
		t.Errorf("list --type tts = %q", out)
	}

	if _, err := run(t, "", "uninstall", "X1"); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if !fsutil.HasMarker(installed) {
		t.Errorf("expected delete marker in %s", installed)
	}

	out, err = run(t, "", "list")
	if err != nil {
		t.Fatalf("list after uninstall: %v", err)
	}
	if !strings.Contains(out, "No plugins installed yet.") {
		t.Errorf("list after uninstall = %q", out)
	}
	if fsutil.DirExists(installed) {
		t.Errorf("expected %s to be swept on load", installed)
	}
}

func TestInstall_UpgradePrompt(t *testing.T) {
	base := setupEnv(t)
	v1 := testpkg.Write(t, base, "demo.spkg", testpkg.Pkg{ID: "X1", Name: "Demo", Version: "1.0.0", Capability: "ocr"})
	if _, err := run(t, "", "install", v1); err != nil {
		t.Fatalf("install v1: %v", err)
	}

	v2dir := filepath.Join(base, "v2")
	if err := os.MkdirAll(v2dir, 0o755); err != nil {
		t.Fatal(err)
	}
	v2 := testpkg.Write(t, v2dir, "demo.spkg", testpkg.Pkg{ID: "X1", Name: "Demo", Version: "2.0.0", Capability: "ocr"})

	out, err := run(t, "n\n", "install", v2)
	if err != nil {
		t.Fatalf("declined upgrade: %v", err)
	}
	if !strings.Contains(out, "Upgrade cancelled") {
		t.Errorf("declined output = %q", out)
	}

	out, err = run(t, "y\n", "install", v2)
	if err != nil {
		t.Fatalf("accepted upgrade: %v", err)
	}
	if !strings.Contains(out, "staged") {
		t.Errorf("accepted output = %q", out)
	}

	out, err = run(t, "", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"version": "2.0.0"`) {
		t.Errorf("list after reload = %q, want version 2.0.0", out)
	}
}

func TestInstall_SameVersionFails(t *testing.T) {
	base := setupEnv(t)
	pkg := testpkg.Write(t, base, "demo.spkg", testpkg.Pkg{ID: "X1", Name: "Demo", Version: "1.0.0", Capability: "ocr"})
	if _, err := run(t, "", "install", pkg); err != nil {
		t.Fatalf("first install: %v", err)
	}
	out, err := run(t, "", "install", pkg, "-y")
	if err == nil {
		t.Fatal("expected second install to fail")
	}
	if !strings.Contains(out, "is not newer") {
		t.Errorf("output = %q, want version conflict message", out)
	}
}

func TestUpgrade_WithoutStaging(t *testing.T) {
	base := setupEnv(t)
	pkg := testpkg.Write(t, base, "demo.spkg", testpkg.Pkg{ID: "X1", Version: "1.0.0", Capability: "ocr"})
	if _, err := run(t, "", "install", pkg); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "upgrade", "X1", pkg); err == nil {
		t.Error("expected upgrade without a staged package to fail")
	}
	if _, err := run(t, "", "upgrade", "missing", pkg); err == nil {
		t.Error("expected upgrade of an unknown id to fail")
	}
}

func TestScanAndSummary(t *testing.T) {
	base := setupEnv(t)
	testpkg.Unpack(t, filepath.Join(base, "preinstalled", "bing"), testpkg.Pkg{ID: "B1", Name: "Bing", Version: "1.0.0", Capability: "dictionary"})
	testpkg.Unpack(t, filepath.Join(base, "packages", "bing_B1"), testpkg.Pkg{ID: "B1", Name: "Bing", Version: "0.9.0", Capability: "dictionary"})
	testpkg.Unpack(t, filepath.Join(base, "packages", "broken_Z1"), testpkg.Pkg{ID: "Z1", Version: "1.0.0"})

	out, err := run(t, "", "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, want := range []string{"[ OK ] Bing v1.0.0", "[DUP ]", "[FAIL] broken_Z1", "1 loaded, 1 failed, 1 duplicates"} {
		if !strings.Contains(out, want) {
			t.Errorf("scan output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "", "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "preinstalled   1") || !strings.Contains(out, "total          1") {
		t.Errorf("summary output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	base := setupEnv(t)
	good := filepath.Join(base, "good")
	testpkg.Unpack(t, good, testpkg.Pkg{ID: "X1", Name: "Demo", Version: "1.0.0", Capability: "ocr"})

	out, err := run(t, "", "validate", good)
	if err != nil {
		t.Fatalf("validate good: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Valid package: Demo (v1.0.0)") {
		t.Errorf("validate output = %q", out)
	}

	bad := filepath.Join(base, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id": "X1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "", "validate", bad)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "validation issue(s)") {
		t.Errorf("validate bad output = %q", out)
	}
}

func TestCleanAndStats(t *testing.T) {
	base := setupEnv(t)
	staged := filepath.Join(base, "staging", "leftover")
	if err := os.MkdirAll(staged, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "clean"); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if fsutil.DirExists(staged) {
		t.Errorf("expected %s to be removed", staged)
	}

	prom := filepath.Join(base, "glossa.prom")
	out, err := run(t, "", "stats", "--textfile", prom)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "glossa_plugins_registered") {
		t.Errorf("stats output = %q", out)
	}
	if _, err := os.Stat(prom); err != nil {
		t.Errorf("expected textfile: %v", err)
	}
}

func TestConfigSetGet(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "", "config", "set", "language", "zh-Hans"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := run(t, "", "config", "get", "language")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := strings.TrimSpace(out); got != "zh-Hans" {
		t.Errorf("config get language = %q, want %q", got, "zh-Hans")
	}
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	want := "glossa version 1.2.3 (commit: abc, built: today)\n"
	if out != want {
		t.Errorf("version = %q, want %q", out, want)
	}
}
