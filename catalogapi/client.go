// Package catalogapi abstracts the remote catalog/form API that supplies
// information-item record sets and accepts their submission.
package catalogapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/JourneyJu/dsg-sub010/types"
)

// Client is the collaborator a record-set controller loads from and submits to
type Client interface {
	// FetchRecords returns the record set of a business form or catalog.
	// Each raw record carries "id" plus the information-item fields.
	FetchRecords(ctx context.Context, sourceID string) ([]types.RawRecord, error)

	// SubmitRecords replaces the record set of sourceID. Records without an
	// id are created; the result lists the persisted id of every record in
	// submission order.
	SubmitRecords(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error)
}

// ErrSourceNotFound is returned when the source id is unknown to the backend
var ErrSourceNotFound = errors.New("source not found")

// ErrInvalidSubmission is returned when the backend rejects a submitted record set
var ErrInvalidSubmission = errors.New("invalid submission")

// APIError is a non-success answer from the HTTP catalog API
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// Is maps well-known API codes onto the package sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrSourceNotFound:
		return e.Code == CodeSourceNotFound
	case ErrInvalidSubmission:
		return e.Code == CodeInvalidSubmission
	}
	return false
}

// ClientFunc adapts a pair of functions into a Client
type ClientFunc struct {
	Fetch  func(ctx context.Context, sourceID string) ([]types.RawRecord, error)
	Submit func(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error)
}

// FetchRecords calls Fetch
func (f ClientFunc) FetchRecords(ctx context.Context, sourceID string) ([]types.RawRecord, error) {
	if f.Fetch == nil {
		return nil, fmt.Errorf("fetch not supported: %w", ErrSourceNotFound)
	}
	return f.Fetch(ctx, sourceID)
}

// SubmitRecords calls Submit
func (f ClientFunc) SubmitRecords(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error) {
	if f.Submit == nil {
		return nil, fmt.Errorf("submit not supported for %s", sourceID)
	}
	return f.Submit(ctx, sourceID, records)
}
