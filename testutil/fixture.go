package testutil

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/JourneyJu/dsg-sub010/types"
)

//go:embed testdata/catalog.json
var catalogJSON []byte

// Source ids present in the fixture
const (
	CustomerSource = "form-customer"
	EmptySource    = "form-empty"
)

// CatalogData provides typed access to the customer form fixture
type CatalogData struct {
	CustomerID   types.RawRecord // "item-001" - primary key, varchar(32), standardized
	CustomerName types.RawRecord // "item-002" - conditional share, string flags
	CreditLimit  types.RawRecord // "item-003" - decimal with nested metadata and code set
	RegisteredAt types.RawRecord // "item-004" - datetime, not shared, extra attribute

	// Records lists the customer form in fixture order
	Records []types.RawRecord
}

type fixtureData struct {
	Sources map[string][]types.RawRecord `json:"sources"`
}

// Sources parses the fixture into fresh raw record sets keyed by source id.
// Every call returns independent maps.
func Sources(t testing.TB) map[string][]types.RawRecord {
	t.Helper()
	var fixture fixtureData
	if err := json.Unmarshal(catalogJSON, &fixture); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return fixture.Sources
}

// LoadCatalog returns a stub client serving the fixture and typed access to
// the customer form records
func LoadCatalog(t testing.TB) (*StubClient, *CatalogData) {
	t.Helper()
	sources := Sources(t)
	records := sources[CustomerSource]
	if len(records) != 4 {
		t.Fatalf("expected 4 customer records in fixture, got %d", len(records))
	}

	data := &CatalogData{
		CustomerID:   records[0],
		CustomerName: records[1],
		CreditLimit:  records[2],
		RegisteredAt: records[3],
		Records:      records,
	}
	return NewStubClient(Sources(t)), data
}

// Items builds raw information items named after names, with ids "a", "b", ...
// for single-letter names and "id-<name>" otherwise. A repeated name gets a
// "-<n>" suffix on its id. Every item is a valid varchar(64) that is not a
// primary key.
func Items(names ...string) []types.RawRecord {
	out := make([]types.RawRecord, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		id := "id-" + name
		if len(name) == 1 {
			id = name
		}
		if seen[id]++; seen[id] > 1 {
			id = fmt.Sprintf("%s-%d", id, seen[id])
		}
		out[i] = types.RawRecord{
			"id":                 id,
			"name":               name,
			"data_type":          "varchar",
			"data_length":        64,
			"is_sensitive":       false,
			"is_secret":          false,
			"is_primary_key":     false,
			"is_incremental":     false,
			"is_local_generated": false,
			"is_standardized":    false,
		}
	}
	return out
}
