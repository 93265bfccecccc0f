package store

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/echotab/echotab-server/internal/durable"
	"github.com/echotab/echotab-server/internal/errors"
)

// base carries the plumbing shared by every persisted entity store: the
// durable store, the init gate, and the version counter derived views key
// their caches on.
type base struct {
	name    string
	logger  *slog.Logger
	emitter EventEmitter
	durable *durable.Store

	mu          sync.RWMutex
	initialized atomic.Bool
	version     atomic.Uint64
}

func newBase(name string, d *durable.Store, logger *slog.Logger, emitter EventEmitter) base {
	return base{name: name, logger: logger, emitter: emitter, durable: d}
}

// Version returns a counter that increments on every state change, local or
// remote. Derived views compare it to decide whether to recompute.
func (b *base) Version() uint64 {
	return b.version.Load()
}

// Initialized reports whether Init has completed.
func (b *base) Initialized() bool {
	return b.initialized.Load()
}

func (b *base) ready() error {
	if !b.initialized.Load() {
		return errors.NotInitialized(b.name + " store not initialized")
	}
	return nil
}

func (b *base) bump() {
	b.version.Add(1)
}

func (b *base) emit(action string, data any) {
	b.emitter.Emit(ChangeEvent{Store: b.name, Action: action, Data: data})
}

// emitFrom attributes a change to the durable instance that wrote it.
func (b *base) emitFrom(origin, action string, data any) {
	b.emitter.EmitFrom(origin, ChangeEvent{Store: b.name, Action: action, Data: data})
}

// persist schedules a debounced durable write. Persists before Init are
// dropped so loading can never clobber storage with an empty snapshot.
func (b *base) persist(serialize func() (string, error)) {
	if !b.initialized.Load() {
		return
	}
	data, err := serialize()
	if err != nil {
		b.logger.Error("serialize store state failed", "store", b.name, "error", err)
		return
	}
	b.durable.Save(data)
}

func (b *base) close() {
	b.durable.Close()
}
