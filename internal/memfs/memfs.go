// Package memfs is an in-memory 9P namespace: a tree of directories and
// files held entirely in process memory, grounded on the teacher's
// StaticDir/StaticFile node types and on the distillation's original Rust
// in-memory handler (crates/filesystems/src/memory.rs). State does not
// survive a process restart.
package memfs

import "github.com/NERVsystems/ninepd/internal/protocol"

// New returns a fresh, empty in-memory root directory ready to be served.
func New() protocol.Dir {
	return protocol.NewStaticDir("/")
}

var _ protocol.Dir = (*protocol.StaticDir)(nil)
