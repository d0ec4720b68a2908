package ruleset

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotLoaded is returned by Holder.Current before the first successful
// load. Resolving against an unloaded holder is a precondition failure,
// not a per-request error.
var ErrNotLoaded = errors.New("ruleset: no snapshot loaded")

// Snapshot is an immutable, fully validated store+template pair. A request
// takes one snapshot reference at the start of resolution and uses it
// throughout, so a concurrent reload can never change data mid-request.
type Snapshot struct {
	Store    *Store
	Template Template
	LoadedAt time.Time
}

// Holder owns the active snapshot reference. Reads are a single atomic
// pointer load; Reload builds and validates the replacement entirely
// off-path and publishes it with one swap. A reload mutex serializes
// concurrent reloads so a slow loser cannot clobber a newer snapshot.
type Holder struct {
	rulesDir     string
	templatePath string

	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewHolder creates a holder for the given rule directory and template
// path. No data is loaded until Reload is called.
func NewHolder(rulesDir, templatePath string) *Holder {
	return &Holder{rulesDir: rulesDir, templatePath: templatePath}
}

// Current returns the active snapshot, or ErrNotLoaded before the first
// successful Reload.
func (h *Holder) Current() (*Snapshot, error) {
	snap := h.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload loads and validates the store and template, then atomically swaps
// them in. On any error the previous snapshot (if any) stays active and is
// still served to concurrent readers.
func (h *Holder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	store, err := LoadDir(h.rulesDir)
	if err != nil {
		return err
	}
	tpl, err := LoadTemplate(h.templatePath)
	if err != nil {
		return err
	}

	h.current.Store(&Snapshot{
		Store:    store,
		Template: tpl,
		LoadedAt: time.Now().UTC(),
	})
	return nil
}
