package extension

import (
	"context"
	"fmt"
)

// Installer is the capability for fetching a missing module from an
// external source. The loader calls it at most once per module, then
// retries the catalog lookup exactly once.
type Installer interface {
	// Install makes the module available in the catalog, or fails.
	Install(ctx context.Context, source, module string) error
}

// DisabledInstaller is the default Installer: the core performs no network
// I/O, so a module absent from the catalog stays absent.
type DisabledInstaller struct{}

func (DisabledInstaller) Install(_ context.Context, source, module string) error {
	return fmt.Errorf("module %q is not in the catalog and installation from %q is disabled", module, source)
}
