package recordset

import (
	"context"
	"fmt"

	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/recordset/views"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Load fetches the record set of sourceID and makes it the canonical collection.
// Ordinals follow arrival order; errors and selection start empty; the mode
// returns to normal.
//
// A newer Load supersedes this one: the older request's context is canceled
// and, should its response still arrive, it is discarded with ErrSuperseded.
// On failure the controller is left empty and a *LoadError is returned.
func (c *Controller) Load(ctx context.Context, sourceID string) ([]types.RecordView, error) {
	c.loadMu.Lock()
	gen := c.loadGen.Add(1)
	if c.loadCancel != nil {
		c.loadCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.loadCancel = cancel
	c.loadMu.Unlock()
	defer cancel()

	c.logger.Debug("loading records", zap.String("source", sourceID), zap.Uint64("generation", gen))
	raw, fetchErr := c.client.FetchRecords(ctx, sourceID)

	return locking.Write(c.lm, func() ([]types.RecordView, error) {
		if c.loadGen.Load() != gen {
			c.logger.Debug("discarding superseded load", zap.String("source", sourceID), zap.Uint64("generation", gen))
			return nil, ErrSuperseded
		}

		c.reset()
		c.sourceID = sourceID

		if fetchErr != nil {
			c.logger.Warn("failed to load records", zap.String("source", sourceID), zap.Error(fetchErr))
			return nil, &LoadError{SourceID: sourceID, Err: fetchErr}
		}

		records, err := c.normalize(raw)
		if err != nil {
			c.logger.Warn("rejected fetched records", zap.String("source", sourceID), zap.Error(err))
			return nil, &LoadError{SourceID: sourceID, Err: err}
		}

		c.records = records
		c.reindex()
		c.loaded = true
		c.notify("load", "")
		c.logger.Info("loaded records", zap.String("source", sourceID), zap.Int("count", len(records)))
		return views.Project(c.records), nil
	})
}

// reset empties the controller. Must be called with the write lock held.
func (c *Controller) reset() {
	c.records = nil
	c.index = map[string]int{}
	c.loaded = false
	c.mode = types.ModeNormal
	c.filter = ""
	c.clearBatch()
}

// normalize turns raw fetched records into canonical records.
// Records without an id receive a generated key.
func (c *Controller) normalize(raw []types.RawRecord) ([]types.Record, error) {
	records := make([]types.Record, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, r := range raw {
		id := cast.ToString(r["id"])
		key := id
		if key == "" {
			key = c.keyFunc()
		}
		if seen[key] {
			return nil, fmt.Errorf("record %d: %w %q", i, ErrDuplicateID, key)
		}
		seen[key] = true

		records = append(records, types.Record{
			ID:      id,
			Key:     key,
			Ordinal: i,
			Fields:  c.normalizeFields(r),
			Errors:  map[string]string{},
		})
	}
	return records, nil
}

// normalizeFields copies the information-item fields of a raw record.
// A nested "metadata" object is flattened into data_type, data_length,
// data_accuracy and data_range.
func (c *Controller) normalizeFields(r types.RawRecord) map[string]interface{} {
	fields := make(map[string]interface{}, len(r))
	for name, value := range r {
		switch name {
		case "id", "index", "ordinal":
			continue
		case "metadata":
			if md, err := cast.ToStringMapE(value); err == nil {
				for _, sub := range []string{types.FieldDataType, types.FieldDataLength, types.FieldDataAccuracy, types.FieldDataRange} {
					if v, ok := md[sub]; ok {
						c.setNormalized(fields, sub, v)
					}
				}
			}
			continue
		case "attributes":
			if attrs, err := cast.ToStringMapE(value); err == nil {
				for k, v := range attrs {
					if _, exists := r[k]; !exists {
						fields[k] = v
					}
				}
			}
			continue
		}
		c.setNormalized(fields, name, value)
	}
	return fields
}

func (c *Controller) setNormalized(fields map[string]interface{}, name string, value interface{}) {
	if spec, ok := c.cfg.GetField(name); ok {
		value = types.NormalizeValue(spec.Kind, value)
	}
	if value == nil {
		return
	}
	fields[name] = value
}
