package recordset

import (
	"context"

	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ValidateAll runs the full rule set over every canonical record, replacing
// their errors, and returns the aggregate result. Pending batch edits are
// not part of the canonical collection and are not validated.
func (c *Controller) ValidateAll() types.ValidationSummary {
	summary, _ := locking.Write(c.lm, func() (types.ValidationSummary, error) {
		return c.validateAll(), nil
	})
	return summary
}

func (c *Controller) validateAll() types.ValidationSummary {
	report := c.validator.ValidateAll(c.records)
	for i := range c.records {
		c.records[i].Errors = report.Errors[i]
	}
	if report.MissingPrimaryKey {
		c.logger.Debug("no primary key flagged")
	}
	return types.ValidationSummary{OK: report.OK(), ErrorCount: report.ErrorCount}
}

// SubmissionPayload projects the canonical collection into the wire shape,
// in ordinal order. It does not validate; call ValidateAll first.
func (c *Controller) SubmissionPayload() []types.SubmittedRecord {
	payload, _ := locking.Read(c.lm, func() ([]types.SubmittedRecord, error) {
		return c.payload(), nil
	})
	return payload
}

func (c *Controller) payload() []types.SubmittedRecord {
	out := make([]types.SubmittedRecord, len(c.records))
	for i, rec := range c.records {
		out[i] = ToSubmitted(rec, c.cfg)
	}
	return out
}

// ToSubmitted projects one record into the wire shape: references become
// structured {id, name} values, flags become strict booleans and the type
// description is nested under metadata. Fields outside the schema travel
// in attributes.
func ToSubmitted(rec types.Record, cfg types.Config) types.SubmittedRecord {
	f := rec.Fields
	s := types.SubmittedRecord{
		ID:               rec.ID,
		Index:            rec.Ordinal,
		Name:             rec.Name(),
		TechnicalName:    cast.ToString(f[types.FieldTechnicalName]),
		Description:      cast.ToString(f[types.FieldDescription]),
		IsSensitive:      types.Truthy(f[types.FieldIsSensitive]),
		IsSecret:         types.Truthy(f[types.FieldIsSecret]),
		IsPrimaryKey:     types.Truthy(f[types.FieldIsPrimaryKey]),
		IsIncremental:    types.Truthy(f[types.FieldIsIncremental]),
		IsLocalGenerated: types.Truthy(f[types.FieldIsLocalGenerated]),
		IsStandardized:   types.Truthy(f[types.FieldIsStandardized]),
		SharedType:       cast.ToString(f[types.FieldSharedType]),
		SharedCondition:  cast.ToString(f[types.FieldSharedCondition]),
		OpenType:         cast.ToString(f[types.FieldOpenType]),
		OpenCondition:    cast.ToString(f[types.FieldOpenCondition]),
		Metadata: types.Metadata{
			DataType:  cast.ToString(f[types.FieldDataType]),
			DataRange: cast.ToString(f[types.FieldDataRange]),
		},
	}
	if n, ok, err := types.IntValue(f[types.FieldDataLength]); ok && err == nil {
		s.Metadata.DataLength = &n
	}
	if n, ok, err := types.IntValue(f[types.FieldDataAccuracy]); ok && err == nil {
		s.Metadata.DataAccuracy = &n
	}
	if ref, err := types.ToRef(f[types.FieldDataRefer]); err == nil {
		s.DataRefer = ref
	}
	if ref, err := types.ToRef(f[types.FieldCodeSet]); err == nil {
		s.CodeSet = ref
	}

	for name, value := range f {
		if _, known := cfg.GetField(name); known || isPayloadField(name) {
			continue
		}
		if s.Attributes == nil {
			s.Attributes = map[string]interface{}{}
		}
		s.Attributes[name] = value
	}
	return s
}

func isPayloadField(name string) bool {
	switch name {
	case types.FieldName, types.FieldTechnicalName, types.FieldDescription,
		types.FieldDataType, types.FieldDataLength, types.FieldDataAccuracy, types.FieldDataRange,
		types.FieldIsSensitive, types.FieldIsSecret, types.FieldIsPrimaryKey, types.FieldIsIncremental,
		types.FieldIsLocalGenerated, types.FieldIsStandardized,
		types.FieldSharedType, types.FieldSharedCondition, types.FieldOpenType, types.FieldOpenCondition,
		types.FieldDataRefer, types.FieldCodeSet:
		return true
	}
	return false
}

// Submit validates the canonical collection and sends it to the collaborator.
//
// Submission is rejected in batch configuration, before any load, and when
// validation reports errors (*ValidationFailedError, without calling the
// collaborator). A collaborator failure returns *SubmitError and leaves the
// canonical collection untouched. On success the persisted ids are written
// back to records created client-side.
func (c *Controller) Submit(ctx context.Context) (*types.SubmitResult, error) {
	type prepared struct {
		sourceID string
		keys     []string
		payload  []types.SubmittedRecord
	}

	p, err := locking.Write(c.lm, func() (prepared, error) {
		if c.mode == types.ModeBatchConfig {
			return prepared{}, c.conflict("submit")
		}
		if !c.loaded {
			return prepared{}, ErrNotLoaded
		}
		if summary := c.validateAll(); !summary.OK {
			return prepared{}, &ValidationFailedError{ErrorCount: summary.ErrorCount}
		}
		keys := make([]string, len(c.records))
		for i, rec := range c.records {
			keys[i] = rec.Key
		}
		return prepared{sourceID: c.sourceID, keys: keys, payload: c.payload()}, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("submitting records", zap.String("source", p.sourceID), zap.Int("count", len(p.payload)))
	result, err := c.client.SubmitRecords(ctx, p.sourceID, p.payload)
	if err != nil {
		c.logger.Warn("failed to submit records", zap.String("source", p.sourceID), zap.Error(err))
		return nil, &SubmitError{SourceID: p.sourceID, Err: err}
	}
	if result == nil {
		result = &types.SubmitResult{SourceID: p.sourceID}
	}

	_ = c.lm.Execute(locking.WriteOperation, func() error {
		assigned := 0
		for i, key := range p.keys {
			if i >= len(result.IDs) {
				break
			}
			j, ok := c.index[key]
			if !ok || c.records[j].ID != "" {
				continue
			}
			c.records[j].ID = result.IDs[i]
			assigned++
		}
		if assigned > 0 {
			c.notify("submit", "")
		}
		return nil
	})
	return result, nil
}
