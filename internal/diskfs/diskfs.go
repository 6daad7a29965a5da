// Package diskfs is a 9P namespace rooted at a single host directory,
// grounded on the distillation's original disk-backed handler
// (crates/filesystems/src/disk.rs). Unlike that source, this backend emits
// correctly framed per-child Stat entries on directory reads (the original
// has a placeholder-bytes bug on that path) and supports rename within the
// parent via Twstat.
package diskfs

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/NERVsystems/ninepd/internal/protocol"
)

// Backend roots a namespace at a host directory.
type Backend struct {
	root string
}

// New validates that dir exists and is a directory, returning a Dir rooted
// there.
func New(dir string) (protocol.Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, protocol.ErrNotDir
	}
	return &dirNode{base{b: &Backend{root: abs}, rel: ""}}, nil
}

// base holds the host-path bookkeeping and File-interface behavior shared by
// fileNode and dirNode. It holds no open file descriptor between calls:
// every operation re-resolves the path and opens what it needs, matching
// the stateless-per-call style of the distillation's disk handler.
type base struct {
	b   *Backend
	rel string // "" denotes the root itself; otherwise slash-separated, root-relative
}

func (n *base) abs() string {
	if n.rel == "" {
		return n.b.root
	}
	return filepath.Join(n.b.root, n.rel)
}

func (n *base) name() string {
	if n.rel == "" {
		return "/"
	}
	return filepath.Base(n.rel)
}

func (n *base) join(name string) string {
	if n.rel == "" {
		return name
	}
	return n.rel + "/" + name
}

func qidFromInfo(info fs.FileInfo) protocol.Qid {
	qtype := protocol.QTFILE
	if info.IsDir() {
		qtype = protocol.QTDIR
	}
	var ino uint64
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		ino = st.Ino
	}
	return protocol.Qid{Type: qtype, Version: 0, Path: ino}
}

func modeFromInfo(info fs.FileInfo) uint32 {
	mode := uint32(info.Mode().Perm())
	if info.IsDir() {
		mode |= protocol.DMDIR
	}
	return mode
}

func (n *base) Stat() protocol.Stat {
	info, err := os.Lstat(n.abs())
	if err != nil {
		// The node has vanished out from under an open fid; report a
		// zeroed, clearly-dead stat rather than panicking.
		return protocol.Stat{Name: n.name()}
	}
	owner := protocol.DefaultOwner
	length := uint64(info.Size())
	if info.IsDir() {
		length = 0
	}
	return protocol.Stat{
		Type:   0,
		Dev:    0,
		Qid:    qidFromInfo(info),
		Mode:   modeFromInfo(info),
		Atime:  uint32(info.ModTime().Unix()),
		Mtime:  uint32(info.ModTime().Unix()),
		Length: length,
		Name:   n.name(),
		Uid:    owner,
		Gid:    owner,
		Muid:   owner,
	}
}

func (n *base) Close() error { return nil }

// SetMode applies the low permission bits to the host file.
func (n *base) SetMode(mode uint32) {
	os.Chmod(n.abs(), os.FileMode(mode&0777))
}

// Truncate sets the host file's length.
func (n *base) Truncate(size uint64) {
	os.Truncate(n.abs(), int64(size))
	os.Chtimes(n.abs(), time.Now(), time.Now())
}

// fileNode represents a regular host file. It does not implement
// protocol.Dir, so the dispatcher's `e.node.(Dir)` checks correctly treat
// it as a plain file: Twrite and Tcreate against a fileNode-bound fid
// behave the same as against any other backend's file node.
type fileNode struct{ base }

var _ protocol.File = (*fileNode)(nil)

func (n *fileNode) Open(mode uint8) error {
	if _, err := os.Lstat(n.abs()); err != nil {
		return protocol.ErrNotFound
	}
	return nil
}

func (n *fileNode) Read(p []byte, offset int64) (int, error) {
	f, err := os.Open(n.abs())
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(p, offset)
}

func (n *fileNode) Write(p []byte, offset int64) (int, error) {
	f, err := os.OpenFile(n.abs(), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.WriteAt(p, offset)
}

// dirNode represents a host directory; only dirNode implements
// protocol.Dir, so a type assertion against Dir reliably distinguishes
// directories from files in this backend.
type dirNode struct{ base }

var _ protocol.Dir = (*dirNode)(nil)

func (n *dirNode) Open(mode uint8) error {
	if _, err := os.Lstat(n.abs()); err != nil {
		return protocol.ErrNotFound
	}
	if mode&3 != protocol.OREAD {
		return protocol.ErrIsDir
	}
	return nil
}

func (n *dirNode) Read(p []byte, offset int64) (int, error) {
	buf := protocol.EncodeDirEntries(n.Children())
	return copyAt(p, buf, offset)
}

func (n *dirNode) Write(p []byte, offset int64) (int, error) {
	return 0, protocol.ErrIsDir
}

// copyAt copies into p the whole self-framed Stat entries of buf that start
// at offset and fit in p; an entry that does not fit is left for the next
// read. An offset at or past the end yields 0 bytes and a nil error.
func copyAt(p, buf []byte, offset int64) (int, error) {
	n := 0
	for off := offset; off+2 <= int64(len(buf)); {
		size := 2 + int64(binary.LittleEndian.Uint16(buf[off:]))
		if off+size > int64(len(buf)) || int64(n)+size > int64(len(p)) {
			break
		}
		n += copy(p[n:], buf[off:off+size])
		off += size
	}
	return n, nil
}

func (n *dirNode) Children() []protocol.File {
	entries, err := os.ReadDir(n.abs())
	if err != nil {
		return nil
	}
	sorted := make([]fs.DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })
	out := make([]protocol.File, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, n.child(e.Name(), e.IsDir()))
	}
	return out
}

func (n *dirNode) Lookup(name string) (protocol.File, error) {
	// A child name is one path element; anything else could resolve
	// outside the backend root.
	if name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return nil, protocol.ErrNotFound
	}
	rel := n.join(name)
	info, err := os.Lstat(filepath.Join(n.b.root, rel))
	if err != nil {
		return nil, protocol.ErrNotFound
	}
	return n.childRel(rel, info.IsDir()), nil
}

// child builds the node for a direct child named name, rooted under n.
func (n *dirNode) child(name string, isDir bool) protocol.File {
	return n.childRel(n.join(name), isDir)
}

func (n *dirNode) childRel(rel string, isDir bool) protocol.File {
	if isDir {
		return &dirNode{base{b: n.b, rel: rel}}
	}
	return &fileNode{base{b: n.b, rel: rel}}
}

func (n *dirNode) Create(name string, perm uint32, mode uint8) (protocol.File, error) {
	if strings.ContainsAny(name, "/\x00") {
		return nil, protocol.ErrBadName
	}
	abs := filepath.Join(n.abs(), name)
	if perm&protocol.DMDIR != 0 {
		if err := os.Mkdir(abs, os.FileMode(perm&0777)|0700); err != nil {
			if os.IsExist(err) {
				return nil, protocol.ErrExists
			}
			return nil, err
		}
		return &dirNode{base{b: n.b, rel: n.join(name)}}, nil
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, os.FileMode(perm&0777))
	if err != nil {
		if os.IsExist(err) {
			return nil, protocol.ErrExists
		}
		return nil, err
	}
	f.Close()
	return &fileNode{base{b: n.b, rel: n.join(name)}}, nil
}

func (n *dirNode) Remove(name string) error {
	abs := filepath.Join(n.abs(), name)
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return protocol.ErrNotFound
		}
		return err
	}
	return nil
}

func (n *dirNode) Rename(oldName, newName string) error {
	if strings.ContainsAny(newName, "/\x00") {
		return protocol.ErrBadName
	}
	oldAbs := filepath.Join(n.abs(), oldName)
	newAbs := filepath.Join(n.abs(), newName)
	if _, err := os.Lstat(oldAbs); err != nil {
		return protocol.ErrNotFound
	}
	if oldName != newName {
		if _, err := os.Lstat(newAbs); err == nil {
			return protocol.ErrExists
		}
	}
	return os.Rename(oldAbs, newAbs)
}
