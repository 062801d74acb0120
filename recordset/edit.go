package recordset

import (
	"fmt"

	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/internal/validation"
	"github.com/JourneyJu/dsg-sub010/recordset/views"
	"github.com/JourneyJu/dsg-sub010/types"
	"go.uber.org/zap"
)

// SetSearchFilter enters searching mode with substring, or returns to normal
// mode when substring is empty. Rejected in batch configuration.
func (c *Controller) SetSearchFilter(substring string) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode == types.ModeBatchConfig {
			return c.conflict("search")
		}
		if substring == "" {
			c.mode = types.ModeNormal
		} else {
			c.mode = types.ModeSearching
		}
		c.filter = substring
		c.notify("search", "")
		return nil
	})
}

// EditField sets one field of the record addressed by key, applies field
// coupling and re-validates the affected fields.
//
// In batch configuration an edit to a record of the batch selection is kept
// pending until commit; edits to other records write canonical state directly.
// An unknown key is ignored.
func (c *Controller) EditField(key, field string, value interface{}) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		i, ok := c.index[key]
		if !ok {
			c.logger.Debug("ignoring edit of unknown record", zap.String("key", key), zap.String("field", field))
			return nil
		}

		if c.mode == types.ModeBatchConfig && c.selection[key] {
			c.editPending(key, field, value)
			c.notify("edit", field, key)
			return nil
		}

		rec := &c.records[i]
		oldName := rec.Name()
		changed := c.applyEdit(rec, field, value)
		c.revalidate(rec, changed)

		switch field {
		case types.FieldName:
			c.refreshDuplicates(i, oldName)
		case types.FieldIsPrimaryKey:
			c.refreshPrimaryKeyConflicts()
		}

		c.notify("edit", field, key)
		return nil
	})
}

// BatchEditField applies value to field of every record in the batch selection.
// Valid only in batch configuration, and only for batch-coupled fields.
func (c *Controller) BatchEditField(field string, value interface{}) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode != types.ModeBatchConfig {
			return c.conflict("batch edit")
		}
		if !c.cfg.IsBatchCoupled(field) {
			return fmt.Errorf("%w: %s", ErrNotBatchField, field)
		}

		keys := make([]string, 0, len(c.selection))
		for _, rec := range c.records {
			if c.selection[rec.Key] {
				c.editPending(rec.Key, field, value)
				keys = append(keys, rec.Key)
			}
		}
		c.notify("batch_edit", field, keys...)
		return nil
	})
}

// SetPrimaryKey makes the addressed record the only primary key of the
// collection, whatever the active mode. An unknown key is ignored.
func (c *Controller) SetPrimaryKey(key string) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if _, ok := c.index[key]; !ok {
			c.logger.Debug("ignoring primary key for unknown record", zap.String("key", key))
			return nil
		}
		for i := range c.records {
			rec := &c.records[i]
			rec.Fields[types.FieldIsPrimaryKey] = rec.Key == key
			delete(rec.Errors, types.FieldIsPrimaryKey)
		}
		for k, pending := range c.overlay {
			delete(pending, types.FieldIsPrimaryKey)
			delete(c.overlayErrors[k], types.FieldIsPrimaryKey)
		}
		c.notify("primary_key", types.FieldIsPrimaryKey, key)
		return nil
	})
}

// Reorder moves the record at position from to position to and renumbers
// ordinals. Valid only in normal mode. from == to is a no-op.
func (c *Controller) Reorder(from, to int) error {
	return c.lm.Execute(locking.WriteOperation, func() error {
		if c.mode != types.ModeNormal {
			return c.conflict("reorder")
		}
		n := len(c.records)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("reorder %d -> %d of %d records: %w", from, to, n, ErrIndexOutOfRange)
		}
		if from == to {
			return nil
		}
		key := c.records[from].Key
		c.records = views.Move(c.records, from, to)
		c.reindex()
		c.notify("reorder", "", key)
		return nil
	})
}

// SetSelection replaces the set of checked records
func (c *Controller) SetSelection(keys []string) {
	_ = c.lm.Execute(locking.WriteOperation, func() error {
		set := toSet(keys)
		for i := range c.records {
			c.records[i].Selected = set[c.records[i].Key]
		}
		c.notify("selection", "", keys...)
		return nil
	})
}

// Selected returns the keys of the checked records in canonical order
func (c *Controller) Selected() []string {
	keys, _ := locking.Read(c.lm, func() ([]string, error) {
		var out []string
		for _, rec := range c.records {
			if rec.Selected {
				out = append(out, rec.Key)
			}
		}
		return out, nil
	})
	return keys
}

// AddRecord appends a record created client-side and returns its key.
// The record has no id until submitted. Rejected in batch configuration.
func (c *Controller) AddRecord(fields map[string]interface{}) (string, error) {
	return locking.Write(c.lm, func() (string, error) {
		if c.mode == types.ModeBatchConfig {
			return "", c.conflict("add record")
		}

		key := c.keyFunc()
		for {
			if _, taken := c.index[key]; !taken {
				break
			}
			key = c.keyFunc()
		}

		rec := types.Record{
			Key:    key,
			Fields: map[string]interface{}{},
			Errors: map[string]string{},
		}
		c.setNormalizedAll(rec.Fields, fields)
		rec.Errors = c.validator.CheckRecord(rec)

		c.records = append(c.records, rec)
		c.reindex()
		c.refreshDuplicates(len(c.records)-1, "")
		c.notify("add", "", key)
		return key, nil
	})
}

// DeleteRecords removes the addressed records and returns how many were removed.
// Rejected in batch configuration. Unknown keys are ignored.
func (c *Controller) DeleteRecords(keys []string) (int, error) {
	return locking.Write(c.lm, func() (int, error) {
		if c.mode == types.ModeBatchConfig {
			return 0, c.conflict("delete records")
		}

		drop := toSet(keys)
		kept := c.records[:0]
		removed := 0
		for _, rec := range c.records {
			if drop[rec.Key] {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if removed == 0 {
			return 0, nil
		}
		c.records = kept
		c.reindex()
		c.clearStaleDuplicates()
		c.refreshPrimaryKeyConflicts()
		c.notify("delete", "", keys...)
		return removed, nil
	})
}

// applyEdit writes value to field and applies the field-coupling rules.
// It returns every field whose value was touched.
func (c *Controller) applyEdit(rec *types.Record, field string, value interface{}) []string {
	changed := []string{field}
	set := func(name string, v interface{}) {
		if v == nil {
			delete(rec.Fields, name)
		} else {
			rec.Fields[name] = v
		}
	}

	if spec, ok := c.cfg.GetField(field); ok {
		value = types.NormalizeValue(spec.Kind, value)
	}
	set(field, value)

	switch field {
	case types.FieldSharedType:
		shared := rec.String(types.FieldSharedType)
		if shared == types.SharedNotShared {
			set(types.FieldOpenType, types.OpenNotOpen)
			set(types.FieldOpenCondition, nil)
			changed = append(changed, types.FieldOpenType, types.FieldOpenCondition)
		}
		if shared != types.SharedConditional {
			set(types.FieldSharedCondition, nil)
			changed = append(changed, types.FieldSharedCondition)
		}
	case types.FieldOpenType:
		if rec.String(types.FieldOpenType) != types.OpenConditional {
			set(types.FieldOpenCondition, nil)
			changed = append(changed, types.FieldOpenCondition)
		}
	case types.FieldDataType:
		dataType := rec.String(types.FieldDataType)
		if !types.HasLength(dataType) {
			set(types.FieldDataLength, nil)
			changed = append(changed, types.FieldDataLength)
		}
		if !types.HasAccuracy(dataType) {
			set(types.FieldDataAccuracy, nil)
			changed = append(changed, types.FieldDataAccuracy)
		}
	case types.FieldDataRefer:
		standardized := !types.IsEmpty(rec.Fields[types.FieldDataRefer])
		set(types.FieldIsStandardized, standardized)
		changed = append(changed, types.FieldIsStandardized)
	}
	return changed
}

// revalidate re-runs the field rules for changed fields and their dependents
func (c *Controller) revalidate(rec *types.Record, changed []string) {
	if rec.Errors == nil {
		rec.Errors = map[string]string{}
	}
	done := map[string]bool{}
	check := func(field string) {
		if done[field] {
			return
		}
		done[field] = true
		if msg := c.validator.CheckField(*rec, field); msg != "" {
			rec.Errors[field] = msg
		} else {
			delete(rec.Errors, field)
		}
	}
	for _, field := range changed {
		check(field)
		for _, dep := range c.validator.Dependents(field) {
			check(dep)
		}
	}
}

// refreshDuplicates re-evaluates the duplicate-name error of the record at i
// against every other record, and clears stale duplicate errors left on
// records that collided with its previous name
func (c *Controller) refreshDuplicates(i int, oldName string) {
	rec := &c.records[i]
	if rec.Errors[types.FieldName] == "" || rec.Errors[types.FieldName] == validation.MsgDuplicateName {
		if validation.HasDuplicateName(c.records, i) {
			rec.Errors[types.FieldName] = validation.MsgDuplicateName
		} else {
			delete(rec.Errors, types.FieldName)
		}
	}
	if oldName != "" {
		c.clearStaleDuplicates()
	}
}

// clearStaleDuplicates drops duplicate-name errors that no longer hold
func (c *Controller) clearStaleDuplicates() {
	for j := range c.records {
		if c.records[j].Errors[types.FieldName] != validation.MsgDuplicateName {
			continue
		}
		if !validation.HasDuplicateName(c.records, j) {
			delete(c.records[j].Errors, types.FieldName)
		}
	}
}

// refreshPrimaryKeyConflicts clears multiple-primary-key errors once at most
// one primary key remains
func (c *Controller) refreshPrimaryKeyConflicts() {
	if len(validation.PrimaryKeys(c.records)) > 1 {
		return
	}
	for j := range c.records {
		if c.records[j].Errors[types.FieldIsPrimaryKey] == validation.MsgMultiplePrimary {
			delete(c.records[j].Errors, types.FieldIsPrimaryKey)
		}
	}
}

func (c *Controller) setNormalizedAll(dst, src map[string]interface{}) {
	for name, value := range src {
		if name == "id" {
			continue
		}
		c.setNormalized(dst, name, value)
	}
}

func toSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
