package protocol

import "sync"

// fidEntry is the per-connection record bound to a client-chosen fid.
type fidEntry struct {
	node     File
	path     []string // names from the attach root; nil/empty means the root itself
	open     bool
	openMode uint8
}

// fidTable is a per-connection map from fid to fidEntry, safe for
// concurrent use by the session loop (Flush handling aside, the session
// loop itself never touches a table concurrently, but Close/cleanup at
// connection teardown races with nothing once the loop has exited; the
// mutex exists because a future pipelined client is otherwise one
// assumption away from a data race).
type fidTable struct {
	mu   sync.Mutex
	fids map[uint32]*fidEntry
}

func newFidTable() *fidTable {
	return &fidTable{fids: make(map[uint32]*fidEntry)}
}

func (t *fidTable) get(fid uint32) (*fidEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.fids[fid]
	return e, ok
}

func (t *fidTable) bind(fid uint32, e *fidEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fids[fid] = e
}

func (t *fidTable) inUse(fid uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.fids[fid]
	return ok
}

func (t *fidTable) remove(fid uint32) (*fidEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.fids[fid]
	delete(t.fids, fid)
	return e, ok
}

func (t *fidTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fids = make(map[uint32]*fidEntry)
}

// clone returns a shallow copy of e, sharing the same node but an
// independently-growable path slice.
func (e *fidEntry) clone() *fidEntry {
	pathCopy := append([]string(nil), e.path...)
	return &fidEntry{node: e.node, path: pathCopy}
}
