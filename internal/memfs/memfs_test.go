package memfs

import (
	"io"
	"testing"

	"github.com/NERVsystems/ninepd/internal/protocol"
)

func TestCreateWriteRead(t *testing.T) {
	root := New()
	f, err := root.Create("greeting", 0644, protocol.OWRITE)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("hello"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 16)
	n, err := f.Read(buf, 0)
	if err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Read = %q, want %q", buf[:n], "hello")
	}
	if f.Stat().Qid.Version == 0 {
		t.Fatalf("qid version did not bump on write")
	}
}

func TestCreateDuplicateNameFails(t *testing.T) {
	root := New()
	if _, err := root.Create("a", 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := root.Create("a", 0644, protocol.OWRITE); err != protocol.ErrExists {
		t.Fatalf("Create duplicate = %v, want ErrExists", err)
	}
}

func TestRemove(t *testing.T) {
	root := New()
	if _, err := root.Create("a", 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := root.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := root.Lookup("a"); err != protocol.ErrNotFound {
		t.Fatalf("Lookup after remove = %v, want ErrNotFound", err)
	}
}

func TestRename(t *testing.T) {
	root := New()
	if _, err := root.Create("old", 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := root.Rename("old", "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := root.Lookup("new"); err != nil {
		t.Fatalf("Lookup(new): %v", err)
	}
	if _, err := root.Lookup("old"); err != protocol.ErrNotFound {
		t.Fatalf("Lookup(old) = %v, want ErrNotFound", err)
	}
}

func TestMkdirAndWalk(t *testing.T) {
	root := New()
	sub, err := root.Create("sub", protocol.DMDIR|0755, protocol.OREAD)
	if err != nil {
		t.Fatalf("Create dir: %v", err)
	}
	if sub.Stat().Mode&protocol.DMDIR == 0 {
		t.Fatalf("created child is not a directory")
	}
	subDir, ok := sub.(protocol.Dir)
	if !ok {
		t.Fatalf("created directory does not satisfy protocol.Dir")
	}
	if _, err := subDir.Create("leaf", 0644, protocol.OWRITE); err != nil {
		t.Fatalf("Create leaf: %v", err)
	}
	if _, err := subDir.Lookup("leaf"); err != nil {
		t.Fatalf("Lookup(leaf): %v", err)
	}
}

func TestDirectoryReadListsSelfSizedEntries(t *testing.T) {
	root := New()
	if _, err := root.Create("short", 0644, protocol.OWRITE); err != nil {
		t.Fatal(err)
	}
	longName := "a-rather-long-file-name-to-exercise-entry-sizing-beyond-any-fixed-buffer"
	if _, err := root.Create(longName, 0644, protocol.OWRITE); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4096)
	n, err := root.(interface {
		Read([]byte, int64) (int, error)
	}).Read(buf, 0)
	if err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	if n == 0 {
		t.Fatalf("directory read returned no data")
	}
	stats := 0
	off := 0
	for off < n {
		s, consumed, err := protocol.DecodeStat(buf[off:n])
		if err != nil {
			t.Fatalf("DecodeStat at offset %d: %v", off, err)
		}
		if s.Name == "" {
			t.Fatalf("decoded entry with empty name")
		}
		off += consumed
		stats++
	}
	if stats != 2 {
		t.Fatalf("decoded %d entries, want 2", stats)
	}
}
