// Package dedup implements a bounded deduplication filter: it
// suppresses Records whose (message_id, request_id) pair was already
// observed, scoped per provider.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/arvindn/genaicost/internal/record"
)

// MaxEntries is the bound on the observed-pairs set. When exceeded, the
// oldest half (by insertion order) is evicted.
const MaxEntries = 100_000

// insertionEntry tracks a key alongside its insertion sequence number
// so the oldest half can be evicted in order.
type insertionEntry struct {
	key string
	seq uint64
}

// Filter is a single-writer, per-provider bounded set of observed
// (message_id, request_id) pairs. Not safe for concurrent use; owned
// exclusively by the driver task.
type Filter struct {
	seen    map[string]uint64 // key -> insertion seq
	nextSeq uint64
}

// NewFilter returns an empty Filter.
func NewFilter() *Filter {
	return &Filter{seen: make(map[string]uint64)}
}

// Accept reports whether r is new (true) or a duplicate (false). A
// Record with both MessageID and RequestID empty is always accepted.
func (f *Filter) Accept(r record.Record) bool {
	messageID, requestID := r.DedupKey()
	if messageID == "" && requestID == "" {
		return true
	}

	key := dedupKey(r.Provider, messageID, requestID)
	if _, ok := f.seen[key]; ok {
		return false
	}

	f.seen[key] = f.nextSeq
	f.nextSeq++

	if len(f.seen) > MaxEntries {
		f.evictOldestHalf()
	}
	return true
}

// Len returns the number of currently tracked pairs.
func (f *Filter) Len() int {
	return len(f.seen)
}

func (f *Filter) evictOldestHalf() {
	entries := make([]insertionEntry, 0, len(f.seen))
	for k, seq := range f.seen {
		entries = append(entries, insertionEntry{key: k, seq: seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	cut := len(entries) / 2
	for _, e := range entries[:cut] {
		delete(f.seen, e.key)
	}
}

func dedupKey(provider record.Provider, messageID, requestID string) string {
	sum := sha256.Sum256([]byte(string(provider) + "|" + messageID + "|" + requestID))
	return hex.EncodeToString(sum[:])
}
