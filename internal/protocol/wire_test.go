package protocol

import (
	"bytes"
	"testing"
)

func TestQidRoundTrip(t *testing.T) {
	q := Qid{Type: QTDIR, Version: 7, Path: 42}
	buf := make([]byte, 32)
	n := q.Encode(buf)
	got, consumed, err := DecodeQid(buf[:n])
	if err != nil {
		t.Fatalf("DecodeQid: %v", err)
	}
	if consumed != n || got != q {
		t.Fatalf("round trip mismatch: got %+v consumed %d, want %+v consumed %d", got, consumed, q, n)
	}
}

func TestStatRoundTrip(t *testing.T) {
	s := Stat{
		Type: 0, Dev: 0,
		Qid:    Qid{Type: QTFILE, Version: 1, Path: 9},
		Mode:   0644,
		Atime:  100, Mtime: 200,
		Length: 5,
		Name:   "hello", Uid: "nobody", Gid: "nobody", Muid: "nobody",
	}
	buf := make([]byte, 256)
	n := s.Encode(buf)
	if n != s.EncodedLen() {
		t.Fatalf("Encode returned %d, EncodedLen reports %d", n, s.EncodedLen())
	}
	got, consumed, err := DecodeStat(buf[:n])
	if err != nil {
		t.Fatalf("DecodeStat: %v", err)
	}
	if consumed != n || got != s {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, s)
	}
}

func TestStatLongNameDoesNotTruncate(t *testing.T) {
	longName := make([]byte, 1000)
	for i := range longName {
		longName[i] = 'x'
	}
	s := Stat{Qid: Qid{}, Name: string(longName), Uid: "a", Gid: "b", Muid: "c"}
	buf := make([]byte, s.EncodedLen())
	n := s.Encode(buf)
	got, _, err := DecodeStat(buf[:n])
	if err != nil {
		t.Fatalf("DecodeStat: %v", err)
	}
	if got.Name != string(longName) {
		t.Fatalf("name truncated: got length %d, want %d", len(got.Name), len(longName))
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	buf := []byte{2, 0, 0xFF, 0xFE}
	if _, _, err := decodeString(buf); err == nil {
		t.Fatalf("expected invalid-utf8 error")
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	if _, _, err := DecodeQid([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected buffer-too-short error")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	payload := []byte{1, 2, 3, 4}
	if err := enc.WriteMessage(Tflush, 99, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	dec := NewDecoder(&buf)
	mtype, tag, body, err := dec.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mtype != Tflush || tag != 99 || !bytes.Equal(body, payload) {
		t.Fatalf("got (%d,%d,%v), want (%d,%d,%v)", mtype, tag, body, Tflush, 99, payload)
	}
}

func TestDecodeRejectsTerror(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteMessage(Terror, 0, nil)
	dec := NewDecoder(&buf)
	_, _, _, err := dec.ReadMessage()
	if err == nil {
		t.Fatalf("expected Terror to be rejected")
	}
	var fe *FramingError
	if !asFramingError(err, &fe) {
		t.Fatalf("expected a FramingError, got %T: %v", err, err)
	}
}

func asFramingError(err error, target **FramingError) bool {
	fe, ok := err.(*FramingError)
	if ok {
		*target = fe
	}
	return ok
}

// Literal byte fixtures for the simplest messages, hand-verified against
// the wire table in SPEC_FULL.md §4.2.
func TestLiteralTversionEncoding(t *testing.T) {
	m := TversionMsg{Msize: 8192, Version: "9P2000"}
	buf := make([]byte, 64)
	n := m.Encode(buf)
	want := []byte{
		0x00, 0x20, 0x00, 0x00, // msize = 8192
		0x06, 0x00, // version length = 6
		'9', 'P', '2', '0', '0', '0',
	}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("Tversion encode = % x, want % x", buf[:n], want)
	}
}

func TestLiteralRerrorEncoding(t *testing.T) {
	m := RerrorMsg{Ename: "no"}
	buf := make([]byte, 16)
	n := m.Encode(buf)
	want := []byte{0x02, 0x00, 'n', 'o'}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("Rerror encode = % x, want % x", buf[:n], want)
	}
}

func TestLiteralZeroQidRattachEncoding(t *testing.T) {
	m := RattachMsg{Qid: Qid{}}
	buf := make([]byte, 16)
	n := m.Encode(buf)
	want := make([]byte, qidSize)
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("Rattach encode = % x, want % x", buf[:n], want)
	}
}

func TestRstatOuterSizeIsInnerStatSizePlusTwo(t *testing.T) {
	s := Stat{Name: "f", Uid: "a", Gid: "b", Muid: "c"}
	m := RstatMsg{Stat: s}
	buf := make([]byte, 256)
	n := m.Encode(buf)
	outer := uint16(buf[0]) | uint16(buf[1])<<8
	innerSize := uint16(buf[2]) | uint16(buf[3])<<8
	if int(outer) != int(innerSize)+2 {
		t.Fatalf("outer size %d != inner stat size field %d + 2", outer, innerSize)
	}
	if int(outer)+2 != n {
		t.Fatalf("total encoded length %d != outer(%d)+2", n, outer)
	}
}
