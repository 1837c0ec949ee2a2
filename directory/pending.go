package directory

import "sync"

// pendingWrites holds entries whose background store write has not finished
// yet, so a call that starts right after a generation still sees its result.
type pendingWrites struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]pendingEntry
}

type pendingEntry struct {
	seq  uint64
	data []byte
}

func newPendingWrites() *pendingWrites {
	return &pendingWrites{entries: make(map[string]pendingEntry)}
}

// put records data for key and returns a token for done.
func (p *pendingWrites) put(key string, data []byte) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.entries[key] = pendingEntry{seq: p.seq, data: data}
	return p.seq
}

func (p *pendingWrites) get(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	return e.data, ok
}

// done forgets key unless a later put replaced it.
func (p *pendingWrites) done(key string, seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok && e.seq == seq {
		delete(p.entries, key)
	}
}

func (p *pendingWrites) drop(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, key)
}

func (p *pendingWrites) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
