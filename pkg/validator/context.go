package validator

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/component"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/sirupsen/logrus"
)

// RunContext is the state shared by every probe of one run. It is owned by
// the run and handed to probes by pointer.
type RunContext struct {
	Identity native.Identity
	// Version is the version the catalog reports for Identity
	Version int32
	// Handle is the live component. Probes may replace it through
	// ReplaceHandle; it is nil only after a failed replacement.
	Handle *component.Handle
	// RequiresExplicitInit is sticky: once set, every new handle is
	// initialized as soon as it is opened
	RequiresExplicitInit bool
	Unauthorized         bool
	HostIsCocoa          bool
	Allocator            Allocator
	Log                  *logrus.Entry

	catalog     native.Catalog
	hostName    string
	hostVersion uint32
	notes       []string
}

// Notef records a diagnostic on the result of the running probe
func (rc *RunContext) Notef(format string, args ...any) {
	note := fmt.Sprintf(format, args...)
	rc.notes = append(rc.notes, note)
	rc.Log.Debug(note)
}

// Catalog returns the catalog the component was resolved from
func (rc *RunContext) Catalog() native.Catalog {
	return rc.catalog
}

func (rc *RunContext) takeNotes() []string {
	notes := rc.notes
	rc.notes = nil
	return notes
}

// OpenHandle opens a new handle on the component under test. The handle is
// initialized when RequiresExplicitInit is set.
func (rc *RunContext) OpenHandle() (*component.Handle, error) {
	h, err := component.Open(rc.catalog, rc.Identity, component.WithLogger(rc.Log))
	if err != nil {
		return nil, err
	}
	h.SetHostIdentity(rc.hostName, rc.hostVersion)

	if rc.RequiresExplicitInit {
		if err := h.Initialize(); err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to initialize %s: %w", rc.Identity, err)
		}
	}
	return h, nil
}

// ReplaceHandle closes the current handle and opens a fresh one. At most one
// handle is live at a time.
func (rc *RunContext) ReplaceHandle() error {
	rc.closeHandle()
	h, err := rc.OpenHandle()
	if err != nil {
		return err
	}
	rc.Handle = h
	return nil
}

func (rc *RunContext) closeHandle() {
	if rc.Handle != nil {
		rc.Handle.Close()
		rc.Handle = nil
	}
}
