package recordset

import (
	"fmt"

	"github.com/JourneyJu/dsg-sub010/types"
)

// Dispatch routes a UI event to the matching controller operation
func (c *Controller) Dispatch(event types.Event) error {
	switch e := event.(type) {
	case types.FieldEditEvent:
		return c.EditField(e.Key, e.Field, e.Value)
	case types.BatchEditEvent:
		return c.BatchEditField(e.Field, e.Value)
	case types.ReorderEvent:
		return c.Reorder(e.From, e.To)
	case types.SearchEvent:
		return c.SetSearchFilter(e.Substring)
	case types.SelectionChangedEvent:
		c.SetSelection(e.Keys)
		return nil
	case types.EnterBatchEvent:
		return c.EnterBatchConfig(e.Keys)
	case types.CommitBatchEvent:
		return c.CommitBatchConfig()
	case types.CancelBatchEvent:
		return c.CancelBatchConfig()
	case types.PrimaryKeyEvent:
		return c.SetPrimaryKey(e.Key)
	case types.AddRecordEvent:
		_, err := c.AddRecord(e.Fields)
		return err
	case types.DeleteRecordsEvent:
		_, err := c.DeleteRecords(e.Keys)
		return err
	case nil:
		return fmt.Errorf("nil event: %w", ErrUnknownEvent)
	default:
		return fmt.Errorf("%T: %w", event, ErrUnknownEvent)
	}
}

// DispatchSpec converts a flat event spec and dispatches it
func (c *Controller) DispatchSpec(spec types.EventSpec) error {
	event, ok := spec.ToEvent()
	if !ok {
		return fmt.Errorf("%q: %w", spec.Type, ErrUnknownEvent)
	}
	return c.Dispatch(event)
}
