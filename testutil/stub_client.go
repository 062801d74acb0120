package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/uuid"
)

// StubClient is an in-memory catalogapi.Client with programmable failures
type StubClient struct {
	mu      sync.Mutex
	sources map[string][]types.RawRecord

	// FetchErr and SubmitErr, when set, are returned by every call
	FetchErr  error
	SubmitErr error

	// FetchHook runs before a fetch returns; it may block to simulate latency
	FetchHook func(ctx context.Context, sourceID string) error

	fetches   int
	submitted [][]types.SubmittedRecord
}

// NewStubClient creates a stub serving the given record sets
func NewStubClient(sources map[string][]types.RawRecord) *StubClient {
	if sources == nil {
		sources = map[string][]types.RawRecord{}
	}
	return &StubClient{sources: sources}
}

// SetRecords replaces the record set of a source
func (s *StubClient) SetRecords(sourceID string, records []types.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[sourceID] = records
}

// FetchRecords returns a copy of the stored record set
func (s *StubClient) FetchRecords(ctx context.Context, sourceID string) ([]types.RawRecord, error) {
	s.mu.Lock()
	s.fetches++
	hook := s.FetchHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, sourceID); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	records, ok := s.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sourceID, catalogapi.ErrSourceNotFound)
	}
	out := make([]types.RawRecord, len(records))
	for i, r := range records {
		cp := make(types.RawRecord, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

// SubmitRecords stores the submission, assigning ids to new records
func (s *StubClient) SubmitRecords(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SubmitErr != nil {
		return nil, s.SubmitErr
	}

	s.submitted = append(s.submitted, records)
	result := &types.SubmitResult{SourceID: sourceID, Version: len(s.submitted)}
	stored := make([]types.RawRecord, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		result.IDs = append(result.IDs, rec.ID)
		stored[i] = rec.ToRaw()
	}
	s.sources[sourceID] = stored
	return result, nil
}

// Fetches returns the number of fetch calls made so far
func (s *StubClient) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Submissions returns every payload submitted so far
func (s *StubClient) Submissions() [][]types.SubmittedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]types.SubmittedRecord(nil), s.submitted...)
}

var _ catalogapi.Client = (*StubClient)(nil)
