package recordset

import (
	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/recordset/views"
	"github.com/JourneyJu/dsg-sub010/types"
	"go.uber.org/zap"
)

// EnterBatchConfig starts batch configuration over the records addressed by
// keys. Unknown keys are ignored. An active search filter is cleared.
func (c *Controller) EnterBatchConfig(keys []string) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode == types.ModeBatchConfig {
			return c.conflict("enter batch config")
		}

		c.selection = make(map[string]bool, len(keys))
		for _, key := range keys {
			if _, ok := c.index[key]; ok {
				c.selection[key] = true
			}
		}
		c.overlay = views.Overlay{}
		c.overlayErrors = map[string]map[string]string{}
		for i := range c.records {
			c.records[i].Selected = c.selection[c.records[i].Key]
		}
		c.mode = types.ModeBatchConfig
		c.filter = ""

		c.logger.Debug("entered batch config", zap.Int("selected", len(c.selection)))
		c.notify("enter_batch", "", keys...)
		return nil
	})
}

// CommitBatchConfig merges the pending batch edits into the canonical
// collection, re-validates every merged record and returns to normal mode.
// Records outside the batch selection are untouched.
func (c *Controller) CommitBatchConfig() error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode != types.ModeBatchConfig {
			return c.conflict("commit batch config")
		}

		merged := 0
		for i := range c.records {
			rec := &c.records[i]
			pending, ok := c.overlay[rec.Key]
			if !ok {
				continue
			}
			for field, value := range pending {
				if value == nil {
					delete(rec.Fields, field)
				} else {
					rec.Fields[field] = value
				}
			}
			rec.Errors = c.validator.CheckRecord(*rec)
			merged++
		}
		for i := range c.records {
			if _, ok := c.overlay[c.records[i].Key]; ok {
				c.refreshDuplicates(i, "")
			}
		}
		c.clearStaleDuplicates()
		c.refreshPrimaryKeyConflicts()

		c.finishBatch()
		c.logger.Debug("committed batch config", zap.Int("merged", merged))
		c.notify("commit_batch", "")
		return nil
	})
}

// CancelBatchConfig discards the pending batch edits and returns to normal
// mode. Canonical records are left exactly as they were, apart from their
// selection flags.
func (c *Controller) CancelBatchConfig() error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode != types.ModeBatchConfig {
			return c.conflict("cancel batch config")
		}
		c.finishBatch()
		c.notify("cancel_batch", "")
		return nil
	})
}

// BatchSelection returns the keys under batch edit in canonical order
func (c *Controller) BatchSelection() []string {
	keys, _ := locking.Read(c.lm, func() ([]string, error) {
		var out []string
		for _, rec := range c.records {
			if c.selection[rec.Key] {
				out = append(out, rec.Key)
			}
		}
		return out, nil
	})
	return keys
}

// editPending applies an edit to the working copy of a batch-selected record
// and records every touched field in the overlay
func (c *Controller) editPending(key, field string, value interface{}) {
	canonical := c.records[c.index[key]]
	working := views.WithOverlay(canonical, c.overlay[key])
	if errs, ok := c.overlayErrors[key]; ok {
		working.Errors = copyErrors(errs)
	}

	changed := c.applyEdit(&working, field, value)
	c.revalidate(&working, changed)

	pending, ok := c.overlay[key]
	if !ok {
		pending = map[string]interface{}{}
		c.overlay[key] = pending
	}
	for _, f := range changed {
		pending[f] = working.Fields[f]
	}
	c.overlayErrors[key] = working.Errors
}

func (c *Controller) finishBatch() {
	for i := range c.records {
		c.records[i].Selected = false
	}
	c.clearBatch()
	c.mode = types.ModeNormal
}

func (c *Controller) clearBatch() {
	c.selection = nil
	c.overlay = nil
	c.overlayErrors = nil
}
