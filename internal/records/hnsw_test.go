package records

import (
	"testing"

	"facegate/internal/identity"
)

func TestNearestIndex_Nearest(t *testing.T) {
	idx := NewNearestIndex()
	recs := []identity.Record{
		testRecord("5014741", 0.1),
		testRecord("2541234", 0.5),
		testRecord("2449999", 0.9),
	}
	if err := idx.BuildFromRecords(recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Count() != 3 {
		t.Fatalf("count = %d, want 3", idx.Count())
	}

	query := make([]float32, identity.DescriptorDim)
	for i := range query {
		query[i] = 0.45
	}

	neighbors, err := idx.Nearest(query, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].Identifier != "2541234" {
		t.Errorf("nearest = %q, want 2541234", neighbors[0].Identifier)
	}
	if neighbors[0].Distance >= neighbors[1].Distance {
		t.Error("neighbors must be ordered by distance")
	}
}

func TestNearestIndex_DeduplicatesByIdentifier(t *testing.T) {
	idx := NewNearestIndex()

	rec := testRecord("5014741", 0.1)
	second := make([]float32, identity.DescriptorDim)
	for i := range second {
		second[i] = 0.11
	}
	rec.Descriptors = append(rec.Descriptors, second)

	if err := idx.BuildFromRecords([]identity.Record{rec, testRecord("2541234", 0.9)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Count() != 3 {
		t.Fatalf("count = %d, want 3 descriptors", idx.Count())
	}

	query := make([]float32, identity.DescriptorDim)
	for i := range query {
		query[i] = 0.1
	}

	neighbors, err := idx.Nearest(query, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2 distinct identities", len(neighbors))
	}
	if neighbors[0].Identifier != "5014741" || neighbors[1].Identifier != "2541234" {
		t.Errorf("neighbors = %+v", neighbors)
	}
}

func TestNearestIndex_SkipsBadDescriptors(t *testing.T) {
	idx := NewNearestIndex()
	rec := identity.Record{
		Identifier:  "5014741",
		Descriptors: [][]float32{make([]float32, 64)}, // wrong dimension
	}
	if err := idx.BuildFromRecords([]identity.Record{rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Count() != 0 {
		t.Errorf("count = %d, want 0", idx.Count())
	}
}

func TestNearestIndex_Uninitialized(t *testing.T) {
	idx := NewNearestIndex()
	if _, err := idx.Nearest(make([]float32, identity.DescriptorDim), 1); err == nil {
		t.Error("expected error for empty index")
	}
	if _, ok := idx.ClosestIdentifier(make([]float32, identity.DescriptorDim)); ok {
		t.Error("empty index must report no closest identifier")
	}
}

func TestNearestIndex_WrongQueryDimension(t *testing.T) {
	idx := NewNearestIndex()
	if err := idx.BuildFromRecords([]identity.Record{testRecord("5014741", 0.1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := idx.Nearest(make([]float32, 64), 1); err == nil {
		t.Error("expected error for wrong query dimension")
	}
}

func TestNearestIndex_ClosestIdentifier(t *testing.T) {
	idx := NewNearestIndex()
	if err := idx.BuildFromRecords([]identity.Record{
		testRecord("5014741", 0.1),
		testRecord("2541234", 0.8),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := make([]float32, identity.DescriptorDim)
	for i := range query {
		query[i] = 0.75
	}

	id, ok := idx.ClosestIdentifier(query)
	if !ok || id != "2541234" {
		t.Errorf("closest = (%q, %v), want 2541234", id, ok)
	}
}
