// Package recordset implements the editing-session controller: one canonical
// ordered collection of information items, the search and batch views derived
// from it, and the write-through mutation API that keeps every view consistent.
package recordset

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/internal/validation"
	"github.com/JourneyJu/dsg-sub010/recordset/views"
	"github.com/JourneyJu/dsg-sub010/types"
	"go.uber.org/zap"
)

// Controller owns the canonical collection of one editing session.
// All mutations run to completion under the write lock; views are computed
// on demand under the read lock and never alias canonical state.
type Controller struct {
	client    catalogapi.Client
	cfg       types.Config
	validator *validation.Validator
	logger    *zap.Logger
	notifier  *Notifier
	keyFunc   func() string
	lm        *locking.LockManager

	// canonical state, guarded by lm
	sourceID string
	loaded   bool
	records  []types.Record
	index    map[string]int
	mode     types.ModeKind
	filter   string

	// batch state, meaningful only in ModeBatchConfig
	selection     map[string]bool
	overlay       views.Overlay
	overlayErrors map[string]map[string]string

	serial uint64

	// load supersession
	loadMu     sync.Mutex
	loadGen    atomic.Uint64
	loadCancel context.CancelFunc
}

// New creates a controller that loads from and submits to client
func New(client catalogapi.Client, opts ...Option) *Controller {
	c := &Controller{
		client:  client,
		cfg:     types.DefaultConfig(),
		logger:  zap.NewNop(),
		keyFunc: newKey,
		lm:      locking.NewLockManager(),
		index:   map[string]int{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = validation.New(c.cfg)
	return c
}

// Config returns the field schema in use
func (c *Controller) Config() types.Config {
	return c.cfg
}

// SourceID returns the id of the loaded record set
func (c *Controller) SourceID() string {
	id, _ := locking.Read(c.lm, func() (string, error) {
		return c.sourceID, nil
	})
	return id
}

// Mode returns the active mode
func (c *Controller) Mode() types.ModeKind {
	m, _ := locking.Read(c.lm, func() (types.ModeKind, error) {
		return c.mode, nil
	})
	return m
}

// Len returns the size of the canonical collection
func (c *Controller) Len() int {
	n, _ := locking.Read(c.lm, func() (int, error) {
		return len(c.records), nil
	})
	return n
}

// Records returns a copy of the canonical collection in ordinal order.
// Pending batch edits are not included.
func (c *Controller) Records() []types.Record {
	out, _ := locking.Read(c.lm, func() ([]types.Record, error) {
		return c.snapshot(), nil
	})
	return out
}

// Record returns a copy of the canonical record addressed by key
func (c *Controller) Record(key string) (types.Record, bool) {
	var rec types.Record
	var found bool
	_ = c.lm.Execute(locking.ReadOperation, func() error {
		if i, ok := c.index[key]; ok {
			rec, found = c.records[i].Clone(), true
		}
		return nil
	})
	return rec, found
}

// View returns the records of the active mode, plus the batch header state
// while in batch configuration
func (c *Controller) View() types.View {
	v, _ := locking.Read(c.lm, func() (types.View, error) {
		return c.view(), nil
	})
	return v
}

func (c *Controller) view() types.View {
	v := types.View{Mode: c.mode, Total: len(c.records)}
	switch c.mode {
	case types.ModeSearching:
		v.Filter = c.filter
		v.Records = views.Project(views.Search(c.records, c.cfg.SearchFieldName(), c.filter))
	case types.ModeBatchConfig:
		batch := c.batchRecords()
		v.Records = views.Project(batch)
		v.Header = views.Header(batch, c.cfg.BatchCoupledFields())
	default:
		v.Records = views.Project(c.records)
	}
	return v
}

// batchRecords returns the batch view with pending values and their errors applied
func (c *Controller) batchRecords() []types.Record {
	batch := views.Batch(c.records, c.selection, c.overlay)
	for i := range batch {
		if errs, ok := c.overlayErrors[batch[i].Key]; ok {
			batch[i].Errors = copyErrors(errs)
		}
	}
	return batch
}

func (c *Controller) snapshot() []types.Record {
	out := make([]types.Record, len(c.records))
	for i, rec := range c.records {
		out[i] = rec.Clone()
	}
	return out
}

// reindex rebuilds the key index and renumbers ordinals densely
func (c *Controller) reindex() {
	views.Renumber(c.records)
	c.index = make(map[string]int, len(c.records))
	for i, rec := range c.records {
		c.index[rec.Key] = i
	}
}

func (c *Controller) conflict(op string) error {
	c.logger.Debug("operation rejected",
		zap.String("op", op),
		zap.Stringer("mode", c.mode))
	return &ModeConflictError{Op: op, Mode: c.mode}
}

// notify queues a change for debounced delivery. Must be called with the write lock held.
func (c *Controller) notify(op, field string, keys ...string) {
	c.serial++
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(types.Change{
		Op:     op,
		Keys:   keys,
		Field:  field,
		Mode:   c.mode,
		Serial: c.serial,
	})
}

// Serial returns the number of mutations applied so far
func (c *Controller) Serial() uint64 {
	s, _ := locking.Read(c.lm, func() (uint64, error) {
		return c.serial, nil
	})
	return s
}

func copyErrors(errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
