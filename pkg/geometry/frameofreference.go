package geometry

import (
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// FrameOfReferenceRegistry interns DICOM-style frame-of-reference UID strings
// to small integers. Id 0 is always the empty UID. It is safe for concurrent use.
type FrameOfReferenceRegistry struct {
	mu   sync.Mutex
	ids  map[string]uint
	uids []string
}

// NewFrameOfReferenceRegistry returns a registry seeded with the empty UID at id 0.
func NewFrameOfReferenceRegistry() *FrameOfReferenceRegistry {
	return &FrameOfReferenceRegistry{
		ids:  map[string]uint{"": 0},
		uids: []string{""},
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *FrameOfReferenceRegistry
)

// DefaultFrameOfReferenceRegistry returns the process-wide registry, creating
// it on first use. Code that needs isolation should inject its own registry.
func DefaultFrameOfReferenceRegistry() *FrameOfReferenceRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewFrameOfReferenceRegistry()
	})
	return defaultRegistry
}

// AddOrLookup returns the id for uid, assigning the next free id the first
// time a given string is seen.
func (r *FrameOfReferenceRegistry) AddOrLookup(uid string) uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[uid]; ok {
		return id
	}
	id := uint(len(r.uids))
	r.ids[uid] = id
	r.uids = append(r.uids, uid)
	return id
}

// Lookup resolves id back to its UID string. The boolean is false for ids
// that were never assigned.
func (r *FrameOfReferenceRegistry) Lookup(id uint) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id >= uint(len(r.uids)) {
		return "", false
	}
	return r.uids[id], true
}

// Len returns the number of registered UIDs, including the empty one.
func (r *FrameOfReferenceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uids)
}

// NewFrameOfReferenceUID generates a fresh UID under the "2.25" root, which
// DICOM reserves for UIDs derived from a UUID written as a decimal integer.
func NewFrameOfReferenceUID() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	return "2.25." + n.String()
}
