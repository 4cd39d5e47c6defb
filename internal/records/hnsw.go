package records

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"facegate/internal/facematch"
	"facegate/internal/identity"
)

// hnswMaxNeighbors is the HNSW M parameter.
const hnswMaxNeighbors = 16

// Neighbor is one nearest-enrollee result.
type Neighbor struct {
	Identifier string
	Distance   float64
}

// NearestIndex is an in-memory HNSW index over every enrolled reference
// descriptor. It answers "which enrolled identity is closest to this live
// face" for the optional mismatch cross-check and the duplicate-enrollment
// scan. Keys are identifier plus reference ordinal, so one identity may
// appear once per reference descriptor.
type NearestIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	owner map[string]string // node key -> identifier
}

// NewNearestIndex creates an empty index.
func NewNearestIndex() *NearestIndex {
	return &NearestIndex{owner: make(map[string]string)}
}

// BuildFromRecords rebuilds the index from the full record set.
func (n *NearestIndex) BuildFromRecords(recs []identity.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	owner := make(map[string]string)
	for _, rec := range recs {
		for i, desc := range rec.Descriptors {
			if len(desc) != identity.DescriptorDim {
				continue
			}
			key := fmt.Sprintf("%s/%d", rec.Identifier, i)
			g.Add(hnsw.MakeNode(key, desc))
			owner[key] = rec.Identifier
		}
	}

	n.graph = g
	n.owner = owner
	return nil
}

// Count returns the number of indexed descriptors.
func (n *NearestIndex) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.owner)
}

// Nearest returns up to k nearest enrolled identities by Euclidean
// distance, deduplicated by identifier (closest reference wins).
func (n *NearestIndex) Nearest(descriptor []float32, k int) ([]Neighbor, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.graph == nil || len(n.owner) == 0 {
		return nil, errors.New("index not initialized")
	}
	if len(descriptor) != identity.DescriptorDim {
		return nil, fmt.Errorf("descriptor length %d, want %d", len(descriptor), identity.DescriptorDim)
	}

	// Over-fetch so deduplication by identifier can still fill k slots.
	nodes := n.graph.Search(descriptor, k*3)

	seen := make(map[string]struct{}, k)
	neighbors := make([]Neighbor, 0, k)
	for _, node := range nodes {
		id := n.owner[node.Key]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		neighbors = append(neighbors, Neighbor{
			Identifier: id,
			Distance:   facematch.Distance(descriptor, node.Value),
		})
		if len(neighbors) == k {
			break
		}
	}
	return neighbors, nil
}

// ClosestIdentifier returns the single nearest enrolled identifier, or
// ("", false) when the index is empty.
func (n *NearestIndex) ClosestIdentifier(descriptor []float32) (string, bool) {
	neighbors, err := n.Nearest(descriptor, 1)
	if err != nil || len(neighbors) == 0 {
		return "", false
	}
	return neighbors[0].Identifier, true
}
