// Package protocol implements the 9P2000 wire protocol: framing, message
// encode/decode, the per-connection session loop, and the fid/namespace
// semantics layer that dispatches onto a pluggable backend.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Version is the dialect string this server understands.
const Version = "9P2000"

// MaxMessageSize bounds the size of any single framed message, including
// the 4-byte size prefix itself.
const MaxMessageSize = 64 * 1024

// NoTag and NoFid are the reserved sentinel values for tag and fid fields.
const (
	NoTag uint16 = 0xFFFF
	NoFid uint32 = 0xFFFFFFFF
)

// Message type codes, per the 9P2000 wire table. Terror (106) is reserved
// and is never emitted; it is rejected on decode.
const (
	Tversion uint8 = 100
	Rversion uint8 = 101
	Tauth    uint8 = 102
	Rauth    uint8 = 103
	Tattach  uint8 = 104
	Rattach  uint8 = 105
	Terror   uint8 = 106 // reserved, illegal on the wire
	Rerror   uint8 = 107
	Tflush   uint8 = 108
	Rflush   uint8 = 109
	Twalk    uint8 = 110
	Rwalk    uint8 = 111
	Topen    uint8 = 112
	Ropen    uint8 = 113
	Tcreate  uint8 = 114
	Rcreate  uint8 = 115
	Tread    uint8 = 116
	Rread    uint8 = 117
	Twrite   uint8 = 118
	Rwrite   uint8 = 119
	Tclunk   uint8 = 120
	Rclunk   uint8 = 121
	Tremove  uint8 = 122
	Rremove  uint8 = 123
	Tstat    uint8 = 124
	Rstat    uint8 = 125
	Twstat   uint8 = 126
	Rwstat   uint8 = 127
)

// Open mode bits (Topen.Mode, Tcreate.Mode).
const (
	OREAD  uint8 = 0
	OWRITE uint8 = 1
	ORDWR  uint8 = 2
	OEXEC  uint8 = 3
	OTRUNC uint8 = 0x10
	ORCLOSE uint8 = 0x40
)

// File mode flag bits (Stat.Mode, Tcreate.Perm).
const (
	DMDIR    uint32 = 0x80000000
	DMAPPEND uint32 = 0x40000000
	DMEXCL   uint32 = 0x20000000
	DMTMP    uint32 = 0x04000000
)

// Qid type bits (Qid.Type), mirroring the high bits of DMDIR etc.
const (
	QTDIR    uint8 = 0x80
	QTAPPEND uint8 = 0x40
	QTEXCL   uint8 = 0x20
	QTTMP    uint8 = 0x04
	QTFILE   uint8 = 0x00
)

// FramingError marks a decode failure that desynchronizes the stream and
// must terminate the session, as opposed to an ordinary semantic Rerror.
type FramingError struct {
	msg string
}

func (e *FramingError) Error() string { return e.msg }

func framingErrorf(format string, args ...any) error {
	return &FramingError{msg: fmt.Sprintf(format, args...)}
}

// Qid is the server-assigned identity of a filesystem object.
type Qid struct {
	Type    uint8
	Version uint32
	Path    uint64
}

const qidSize = 1 + 4 + 8

// Encode writes the qid's 13-byte wire form into buf, returning bytes written.
func (q Qid) Encode(buf []byte) int {
	buf[0] = q.Type
	binary.LittleEndian.PutUint32(buf[1:5], q.Version)
	binary.LittleEndian.PutUint64(buf[5:13], q.Path)
	return qidSize
}

// DecodeQid reads a 13-byte qid from buf, returning the qid and bytes consumed.
func DecodeQid(buf []byte) (Qid, int, error) {
	if len(buf) < qidSize {
		return Qid{}, 0, framingErrorf("qid: need %d bytes, have %d", qidSize, len(buf))
	}
	q := Qid{
		Type:    buf[0],
		Version: binary.LittleEndian.Uint32(buf[1:5]),
		Path:    binary.LittleEndian.Uint64(buf[5:13]),
	}
	return q, qidSize, nil
}

// Stat is the wire-level metadata record used by Tstat/Rstat/Twstat and by
// directory-read entries.
type Stat struct {
	Type  uint16
	Dev   uint32
	Qid   Qid
	Mode  uint32
	Atime uint32
	Mtime uint32
	Length uint64
	Name  string
	Uid   string
	Gid   string
	Muid  string
}

// NoTouchU32 and NoTouchU64 are the Twstat "don't touch this field" sentinels.
const (
	NoTouchU32 uint32 = 0xFFFFFFFF
	NoTouchU16 uint16 = 0xFFFF
	NoTouchU64 uint64 = 0xFFFFFFFFFFFFFFFF
)

// statBodySize returns the number of bytes the fixed + string fields of s
// occupy, excluding the two size-prefix u16s that wrap it on the wire.
func statBodySize(s Stat) int {
	return 2 + 4 + qidSize + 4 + 4 + 4 + 8 + // type,dev,qid,mode,atime,mtime,length
		2 + len(s.Name) + 2 + len(s.Uid) + 2 + len(s.Gid) + 2 + len(s.Muid)
}

// Encode writes s's self-framed wire form (its own leading u16 size field
// followed by its body) into buf, returning bytes written.
func (s Stat) Encode(buf []byte) int {
	n := statBodySize(s)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(n))
	off := 2
	binary.LittleEndian.PutUint16(buf[off:off+2], s.Type)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:off+4], s.Dev)
	off += 4
	off += s.Qid.Encode(buf[off:])
	binary.LittleEndian.PutUint32(buf[off:off+4], s.Mode)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], s.Atime)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], s.Mtime)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], s.Length)
	off += 8
	off += encodeString(buf[off:], s.Name)
	off += encodeString(buf[off:], s.Uid)
	off += encodeString(buf[off:], s.Gid)
	off += encodeString(buf[off:], s.Muid)
	return off
}

// EncodedLen returns the total wire length of s including its leading u16.
func (s Stat) EncodedLen() int { return 2 + statBodySize(s) }

// DecodeStat reads a self-framed Stat from buf, returning it and bytes consumed.
func DecodeStat(buf []byte) (Stat, int, error) {
	if len(buf) < 2 {
		return Stat{}, 0, framingErrorf("stat: need 2 bytes for size, have %d", len(buf))
	}
	n := int(binary.LittleEndian.Uint16(buf[0:2]))
	if len(buf) < 2+n {
		return Stat{}, 0, framingErrorf("stat: need %d bytes, have %d", 2+n, len(buf))
	}
	body := buf[2 : 2+n]
	var s Stat
	off := 0
	if len(body) < off+2 {
		return Stat{}, 0, framingErrorf("stat: truncated type field")
	}
	s.Type = binary.LittleEndian.Uint16(body[off : off+2])
	off += 2
	s.Dev = binary.LittleEndian.Uint32(body[off : off+4])
	off += 4
	q, qn, err := DecodeQid(body[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	s.Qid = q
	off += qn
	s.Mode = binary.LittleEndian.Uint32(body[off : off+4])
	off += 4
	s.Atime = binary.LittleEndian.Uint32(body[off : off+4])
	off += 4
	s.Mtime = binary.LittleEndian.Uint32(body[off : off+4])
	off += 4
	s.Length = binary.LittleEndian.Uint64(body[off : off+8])
	off += 8
	var sn int
	s.Name, sn, err = decodeString(body[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	off += sn
	s.Uid, sn, err = decodeString(body[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	off += sn
	s.Gid, sn, err = decodeString(body[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	off += sn
	s.Muid, sn, err = decodeString(body[off:])
	if err != nil {
		return Stat{}, 0, err
	}
	off += sn
	return s, 2 + n, nil
}

func encodeString(buf []byte, s string) int {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(s)))
	copy(buf[2:], s)
	return 2 + len(s)
}

func decodeString(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, framingErrorf("string: need 2 bytes for length, have %d", len(buf))
	}
	n := int(binary.LittleEndian.Uint16(buf[0:2]))
	if len(buf) < 2+n {
		return "", 0, framingErrorf("string: need %d bytes, have %d", 2+n, len(buf))
	}
	b := buf[2 : 2+n]
	if !isValidUTF8(b) {
		return "", 0, framingErrorf("string: invalid utf-8")
	}
	return string(b), 2 + n, nil
}

func isValidUTF8(b []byte) bool {
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return false
			}
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return false
			}
			i += 3
		case c&0xF8 == 0xF0:
			if i+3 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 || b[i+3]&0xC0 != 0x80 {
				return false
			}
			i += 4
		default:
			return false
		}
	}
	return true
}

// Decoder reads framed 9P messages from a stream.
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 4096)}
}

// ReadMessage reads one frame, returning its type, tag, and raw body.
func (d *Decoder) ReadMessage() (msgType uint8, tag uint16, payload []byte, err error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(d.r, sizeBuf[:]); err != nil {
		return 0, 0, nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	if size < 7 {
		return 0, 0, nil, framingErrorf("message size %d smaller than minimum header", size)
	}
	if size > MaxMessageSize {
		return 0, 0, nil, framingErrorf("message size %d exceeds maximum %d", size, MaxMessageSize)
	}
	body := make([]byte, size-4)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return 0, 0, nil, err
	}
	msgType = body[0]
	if msgType == Terror {
		return 0, 0, nil, framingErrorf("Terror is reserved and illegal on the wire")
	}
	tag = binary.LittleEndian.Uint16(body[1:3])
	return msgType, tag, body[3:], nil
}

// Encoder writes framed 9P messages to a stream.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, buf: make([]byte, 4096)}
}

// WriteMessage frames and writes one message.
func (e *Encoder) WriteMessage(msgType uint8, tag uint16, payload []byte) error {
	total := 4 + 1 + 2 + len(payload)
	if total > cap(e.buf) {
		e.buf = make([]byte, total)
	}
	buf := e.buf[:total]
	binary.LittleEndian.PutUint32(buf[0:4], uint32(total))
	buf[4] = msgType
	binary.LittleEndian.PutUint16(buf[5:7], tag)
	copy(buf[7:], payload)
	_, err := e.w.Write(buf)
	return err
}
