package manifest

import (
	"path/filepath"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/capability"
)

// DescriptorFile is the fixed name of the descriptor at a package root.
var DescriptorFile = branding.DescriptorFile()

// Descriptor is the persisted part of a package's metadata.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	Entry       string `json:"entry"`
	Capability  string `json:"capability,omitempty"` // declared capability, optional
}

// Metadata describes one installed or staged package. Fields below the
// descriptor are derived at load time and never written to plugin.json.
type Metadata struct {
	Descriptor

	Directory         string `json:"-"`
	Preinstalled      bool   `json:"-"`
	SettingsDirectory string `json:"-"`
	CacheDirectory    string `json:"-"`

	// Set only after successful capability discovery.
	ModuleName     string                `json:"-"`
	CapabilityType capability.Capability `json:"-"`
}

// EntryPath returns the absolute path of the package's code module.
func (m *Metadata) EntryPath() string {
	if m.Entry == "" {
		return ""
	}
	return filepath.Join(m.Directory, filepath.FromSlash(m.Entry))
}

// Loaded reports whether capability discovery has succeeded for m.
func (m *Metadata) Loaded() bool {
	return m.ModuleName != "" && m.CapabilityType != ""
}

// Clone returns a copy of m that can be handed to callers outside the
// registry lock.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// DisplayKind returns "preinstalled" or "user".
func (m *Metadata) DisplayKind() string {
	if m.Preinstalled {
		return "preinstalled"
	}
	return "user"
}
