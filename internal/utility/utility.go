package utility

import (
	"strings"
	"sync"
)

// KeyedMutex provides per-key mutual exclusion. The Dialogue Engine locks on
// the sender identifier so overlapping webhook deliveries for the same sender
// are serialized while different senders proceed concurrently.
//
// Mutexes are created lazily and never evicted; the key space is bounded by
// the active user population.
type KeyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock function.
func (m *KeyedMutex) Lock(key string) func() {
	v, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// SplitList splits a comma-separated free-text answer into trimmed,
// non-empty items. The items themselves are kept verbatim.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
