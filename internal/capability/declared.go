package capability

import "context"

// DeclaredLoader trusts the capability declared in the descriptor. It is used
// for entry modules the host cannot execute itself.
type DeclaredLoader struct{}

// Load returns the declared capability, or ErrNoCapabilityFound when none is
// declared or the value is outside the closed set.
func (DeclaredLoader) Load(_ context.Context, req Request) (*Module, error) {
	if req.Declared == "" {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, nil)
	}
	c, err := Parse(req.Declared)
	if err != nil {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, err)
	}
	return &Module{Name: moduleName(req.EntryPath), Capability: c}, nil
}
