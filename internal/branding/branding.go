// Package branding provides compile-time identity values for the CLI and the
// fixed names of the on-disk package format.
//
// Values live in the embedded branding.yaml; Go's //go:embed bakes it into
// the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName        string `yaml:"cli_name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	HomeDir        string `yaml:"home_dir"`
	EnvPrefix      string `yaml:"env_prefix"`
	GoModule       string `yaml:"go_module"`
	PackageExt     string `yaml:"package_ext"`
	DescriptorFile string `yaml:"descriptor_file"`
	DeleteMarker   string `yaml:"delete_marker"`
	UpgradeSuffix  string `yaml:"upgrade_suffix"`
	StagingDir     string `yaml:"staging_dir"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:        "glossa",
			DisplayName:    "Glossa",
			Description:    "Package manager for Glossa translation plugins",
			HomeDir:        ".glossa",
			EnvPrefix:      "GLOSSA",
			GoModule:       "github.com/glossa-app/glossa",
			PackageExt:     ".spkg",
			DescriptorFile: "plugin.json",
			DeleteMarker:   "NeedDelete.txt",
			UpgradeSuffix:  "_NeedUpgrade",
			StagingDir:     "GlossaTmpPlugins",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "glossa").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Glossa").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".glossa").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "GLOSSA").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path.
func GoModule() string { load(); return defaults.GoModule }

// PackageExt returns the package file extension including the dot (".spkg").
func PackageExt() string { load(); return defaults.PackageExt }

// DescriptorFile returns the descriptor file name at a package root.
func DescriptorFile() string { load(); return defaults.DescriptorFile }

// DeleteMarker returns the name of the pending-delete marker file.
func DeleteMarker() string { load(); return defaults.DeleteMarker }

// UpgradeSuffix returns the suffix that marks a staged replacement directory.
func UpgradeSuffix() string { load(); return defaults.UpgradeSuffix }

// StagingDir returns the name of the staging root under the OS temp dir.
func StagingDir() string { load(); return defaults.StagingDir }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("packages") → "GLOSSA_PACKAGES".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
