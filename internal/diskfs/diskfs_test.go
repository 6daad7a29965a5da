package diskfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/NERVsystems/ninepd/internal/protocol"
)

func TestCreateWriteReadRemoveRename(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f, err := root.Create("note.txt", 0644, protocol.OWRITE)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("hi"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 8)
	n, err := f.Read(buf, 0)
	if err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hi" {
		t.Fatalf("Read = %q, want %q", buf[:n], "hi")
	}

	if err := root.Rename("note.txt", "renamed.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "renamed.txt")); err != nil {
		t.Fatalf("renamed file missing on disk: %v", err)
	}

	if err := root.Remove("renamed.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := root.Lookup("renamed.txt"); err != protocol.ErrNotFound {
		t.Fatalf("Lookup after remove = %v, want ErrNotFound", err)
	}
}

func TestDirectoryReadHasNoFixedSizeCorruption(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	longName := "a-very-long-file-name-used-to-exercise-the-directory-read-entry-sizing-path"
	if _, err := root.Create(longName, 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create: %v", err)
	}
	buf := make([]byte, 4096)
	n, err := root.Read(buf, 0)
	if err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	s, consumed, err := protocol.DecodeStat(buf[:n])
	if err != nil {
		t.Fatalf("DecodeStat: %v", err)
	}
	if s.Name != longName {
		t.Fatalf("decoded name = %q, want %q", s.Name, longName)
	}
	if consumed != n {
		t.Fatalf("consumed %d of %d bytes; unexpected trailing/partial data", consumed, n)
	}
}

func TestQidPathIsStableAcrossLookups(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := root.Create("f", 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, err := root.Lookup("f")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	b, err := root.Lookup("f")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if a.Stat().Qid.Path != b.Stat().Qid.Path {
		t.Fatalf("qid path changed across lookups of the same file")
	}
}
