package protocol

import "encoding/binary"

// Message is satisfied by every request/response body type. Type returns
// the message's wire opcode; Encode writes the body (everything after the
// tag) into buf and returns the byte count.
type Message interface {
	Type() uint8
	Encode(buf []byte) int
}

// MessageName returns a debug-friendly name for a message type byte.
func MessageName(t uint8) string {
	switch t {
	case Tversion:
		return "Tversion"
	case Rversion:
		return "Rversion"
	case Tauth:
		return "Tauth"
	case Rauth:
		return "Rauth"
	case Tattach:
		return "Tattach"
	case Rattach:
		return "Rattach"
	case Rerror:
		return "Rerror"
	case Tflush:
		return "Tflush"
	case Rflush:
		return "Rflush"
	case Twalk:
		return "Twalk"
	case Rwalk:
		return "Rwalk"
	case Topen:
		return "Topen"
	case Ropen:
		return "Ropen"
	case Tcreate:
		return "Tcreate"
	case Rcreate:
		return "Rcreate"
	case Tread:
		return "Tread"
	case Rread:
		return "Rread"
	case Twrite:
		return "Twrite"
	case Rwrite:
		return "Rwrite"
	case Tclunk:
		return "Tclunk"
	case Rclunk:
		return "Rclunk"
	case Tremove:
		return "Tremove"
	case Rremove:
		return "Rremove"
	case Tstat:
		return "Tstat"
	case Rstat:
		return "Rstat"
	case Twstat:
		return "Twstat"
	case Rwstat:
		return "Rwstat"
	default:
		return "Tunknown"
	}
}

// ---- Tversion / Rversion ----

type TversionMsg struct {
	Msize   uint32
	Version string
}

func (m TversionMsg) Type() uint8 { return Tversion }

func (m TversionMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Msize)
	return 4 + encodeString(buf[4:], m.Version)
}

func DecodeTversion(buf []byte) (TversionMsg, error) {
	if len(buf) < 4 {
		return TversionMsg{}, framingErrorf("Tversion: truncated")
	}
	msize := binary.LittleEndian.Uint32(buf[0:4])
	v, _, err := decodeString(buf[4:])
	if err != nil {
		return TversionMsg{}, err
	}
	return TversionMsg{Msize: msize, Version: v}, nil
}

type RversionMsg struct {
	Msize   uint32
	Version string
}

func (m RversionMsg) Type() uint8 { return Rversion }

func (m RversionMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Msize)
	return 4 + encodeString(buf[4:], m.Version)
}

// ---- Tauth / Rauth ----

type TauthMsg struct {
	Afid  uint32
	Uname string
	Aname string
}

func (m TauthMsg) Type() uint8 { return Tauth }

func (m TauthMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Afid)
	off := 4 + encodeString(buf[4:], m.Uname)
	off += encodeString(buf[off:], m.Aname)
	return off
}

func DecodeTauth(buf []byte) (TauthMsg, error) {
	if len(buf) < 4 {
		return TauthMsg{}, framingErrorf("Tauth: truncated")
	}
	afid := binary.LittleEndian.Uint32(buf[0:4])
	uname, n, err := decodeString(buf[4:])
	if err != nil {
		return TauthMsg{}, err
	}
	aname, _, err := decodeString(buf[4+n:])
	if err != nil {
		return TauthMsg{}, err
	}
	return TauthMsg{Afid: afid, Uname: uname, Aname: aname}, nil
}

type RauthMsg struct {
	Aqid Qid
}

func (m RauthMsg) Type() uint8 { return Rauth }

func (m RauthMsg) Encode(buf []byte) int { return m.Aqid.Encode(buf) }

// ---- Tattach / Rattach ----

type TattachMsg struct {
	Fid   uint32
	Afid  uint32
	Uname string
	Aname string
}

func (m TattachMsg) Type() uint8 { return Tattach }

func (m TattachMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	binary.LittleEndian.PutUint32(buf[4:8], m.Afid)
	off := 8 + encodeString(buf[8:], m.Uname)
	off += encodeString(buf[off:], m.Aname)
	return off
}

func DecodeTattach(buf []byte) (TattachMsg, error) {
	if len(buf) < 8 {
		return TattachMsg{}, framingErrorf("Tattach: truncated")
	}
	fid := binary.LittleEndian.Uint32(buf[0:4])
	afid := binary.LittleEndian.Uint32(buf[4:8])
	uname, n, err := decodeString(buf[8:])
	if err != nil {
		return TattachMsg{}, err
	}
	aname, _, err := decodeString(buf[8+n:])
	if err != nil {
		return TattachMsg{}, err
	}
	return TattachMsg{Fid: fid, Afid: afid, Uname: uname, Aname: aname}, nil
}

type RattachMsg struct {
	Qid Qid
}

func (m RattachMsg) Type() uint8 { return Rattach }

func (m RattachMsg) Encode(buf []byte) int { return m.Qid.Encode(buf) }

// ---- Rerror ----

type RerrorMsg struct {
	Ename string
}

func (m RerrorMsg) Type() uint8 { return Rerror }

func (m RerrorMsg) Encode(buf []byte) int { return encodeString(buf, m.Ename) }

// ---- Tflush / Rflush ----

type TflushMsg struct {
	Oldtag uint16
}

func (m TflushMsg) Type() uint8 { return Tflush }

func (m TflushMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint16(buf[0:2], m.Oldtag)
	return 2
}

func DecodeTflush(buf []byte) (TflushMsg, error) {
	if len(buf) < 2 {
		return TflushMsg{}, framingErrorf("Tflush: truncated")
	}
	return TflushMsg{Oldtag: binary.LittleEndian.Uint16(buf[0:2])}, nil
}

type RflushMsg struct{}

func (m RflushMsg) Type() uint8           { return Rflush }
func (m RflushMsg) Encode(buf []byte) int { return 0 }

// ---- Twalk / Rwalk ----

type TwalkMsg struct {
	Fid    uint32
	Newfid uint32
	Names  []string
}

func (m TwalkMsg) Type() uint8 { return Twalk }

func (m TwalkMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	binary.LittleEndian.PutUint32(buf[4:8], m.Newfid)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(m.Names)))
	off := 10
	for _, n := range m.Names {
		off += encodeString(buf[off:], n)
	}
	return off
}

func DecodeTwalk(buf []byte) (TwalkMsg, error) {
	if len(buf) < 10 {
		return TwalkMsg{}, framingErrorf("Twalk: truncated")
	}
	fid := binary.LittleEndian.Uint32(buf[0:4])
	newfid := binary.LittleEndian.Uint32(buf[4:8])
	nwname := int(binary.LittleEndian.Uint16(buf[8:10]))
	off := 10
	names := make([]string, 0, nwname)
	for i := 0; i < nwname; i++ {
		s, n, err := decodeString(buf[off:])
		if err != nil {
			return TwalkMsg{}, err
		}
		names = append(names, s)
		off += n
	}
	return TwalkMsg{Fid: fid, Newfid: newfid, Names: names}, nil
}

type RwalkMsg struct {
	Qids []Qid
}

func (m RwalkMsg) Type() uint8 { return Rwalk }

func (m RwalkMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(m.Qids)))
	off := 2
	for _, q := range m.Qids {
		off += q.Encode(buf[off:])
	}
	return off
}

// ---- Topen / Ropen ----

type TopenMsg struct {
	Fid  uint32
	Mode uint8
}

func (m TopenMsg) Type() uint8 { return Topen }

func (m TopenMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	buf[4] = m.Mode
	return 5
}

func DecodeTopen(buf []byte) (TopenMsg, error) {
	if len(buf) < 5 {
		return TopenMsg{}, framingErrorf("Topen: truncated")
	}
	return TopenMsg{Fid: binary.LittleEndian.Uint32(buf[0:4]), Mode: buf[4]}, nil
}

type RopenMsg struct {
	Qid    Qid
	Iounit uint32
}

func (m RopenMsg) Type() uint8 { return Ropen }

func (m RopenMsg) Encode(buf []byte) int {
	n := m.Qid.Encode(buf)
	binary.LittleEndian.PutUint32(buf[n:n+4], m.Iounit)
	return n + 4
}

// ---- Tcreate / Rcreate ----

type TcreateMsg struct {
	Fid  uint32
	Name string
	Perm uint32
	Mode uint8
}

func (m TcreateMsg) Type() uint8 { return Tcreate }

func (m TcreateMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	off := 4 + encodeString(buf[4:], m.Name)
	binary.LittleEndian.PutUint32(buf[off:off+4], m.Perm)
	off += 4
	buf[off] = m.Mode
	return off + 1
}

func DecodeTcreate(buf []byte) (TcreateMsg, error) {
	if len(buf) < 4 {
		return TcreateMsg{}, framingErrorf("Tcreate: truncated")
	}
	fid := binary.LittleEndian.Uint32(buf[0:4])
	name, n, err := decodeString(buf[4:])
	if err != nil {
		return TcreateMsg{}, err
	}
	off := 4 + n
	if len(buf) < off+5 {
		return TcreateMsg{}, framingErrorf("Tcreate: truncated perm/mode")
	}
	perm := binary.LittleEndian.Uint32(buf[off : off+4])
	mode := buf[off+4]
	return TcreateMsg{Fid: fid, Name: name, Perm: perm, Mode: mode}, nil
}

type RcreateMsg struct {
	Qid    Qid
	Iounit uint32
}

func (m RcreateMsg) Type() uint8 { return Rcreate }

func (m RcreateMsg) Encode(buf []byte) int {
	n := m.Qid.Encode(buf)
	binary.LittleEndian.PutUint32(buf[n:n+4], m.Iounit)
	return n + 4
}

// ---- Tread / Rread ----

type TreadMsg struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func (m TreadMsg) Type() uint8 { return Tread }

func (m TreadMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	binary.LittleEndian.PutUint64(buf[4:12], m.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], m.Count)
	return 16
}

func DecodeTread(buf []byte) (TreadMsg, error) {
	if len(buf) < 16 {
		return TreadMsg{}, framingErrorf("Tread: truncated")
	}
	return TreadMsg{
		Fid:    binary.LittleEndian.Uint32(buf[0:4]),
		Offset: binary.LittleEndian.Uint64(buf[4:12]),
		Count:  binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

type RreadMsg struct {
	Data []byte
}

func (m RreadMsg) Type() uint8 { return Rread }

func (m RreadMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(m.Data)))
	copy(buf[4:], m.Data)
	return 4 + len(m.Data)
}

// ---- Twrite / Rwrite ----

type TwriteMsg struct {
	Fid    uint32
	Offset uint64
	Data   []byte
}

func (m TwriteMsg) Type() uint8 { return Twrite }

func (m TwriteMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	binary.LittleEndian.PutUint64(buf[4:12], m.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(m.Data)))
	copy(buf[16:], m.Data)
	return 16 + len(m.Data)
}

func DecodeTwrite(buf []byte) (TwriteMsg, error) {
	if len(buf) < 16 {
		return TwriteMsg{}, framingErrorf("Twrite: truncated")
	}
	fid := binary.LittleEndian.Uint32(buf[0:4])
	offset := binary.LittleEndian.Uint64(buf[4:12])
	count := binary.LittleEndian.Uint32(buf[12:16])
	if uint32(len(buf)-16) < count {
		return TwriteMsg{}, framingErrorf("Twrite: need %d data bytes, have %d", count, len(buf)-16)
	}
	data := make([]byte, count)
	copy(data, buf[16:16+count])
	return TwriteMsg{Fid: fid, Offset: offset, Data: data}, nil
}

type RwriteMsg struct {
	Count uint32
}

func (m RwriteMsg) Type() uint8 { return Rwrite }

func (m RwriteMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Count)
	return 4
}

// ---- Tclunk / Rclunk ----

type TclunkMsg struct {
	Fid uint32
}

func (m TclunkMsg) Type() uint8 { return Tclunk }

func (m TclunkMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	return 4
}

func DecodeTclunk(buf []byte) (TclunkMsg, error) {
	if len(buf) < 4 {
		return TclunkMsg{}, framingErrorf("Tclunk: truncated")
	}
	return TclunkMsg{Fid: binary.LittleEndian.Uint32(buf[0:4])}, nil
}

type RclunkMsg struct{}

func (m RclunkMsg) Type() uint8           { return Rclunk }
func (m RclunkMsg) Encode(buf []byte) int { return 0 }

// ---- Tremove / Rremove ----

type TremoveMsg struct {
	Fid uint32
}

func (m TremoveMsg) Type() uint8 { return Tremove }

func (m TremoveMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	return 4
}

func DecodeTremove(buf []byte) (TremoveMsg, error) {
	if len(buf) < 4 {
		return TremoveMsg{}, framingErrorf("Tremove: truncated")
	}
	return TremoveMsg{Fid: binary.LittleEndian.Uint32(buf[0:4])}, nil
}

type RremoveMsg struct{}

func (m RremoveMsg) Type() uint8           { return Rremove }
func (m RremoveMsg) Encode(buf []byte) int { return 0 }

// ---- Tstat / Rstat ----

type TstatMsg struct {
	Fid uint32
}

func (m TstatMsg) Type() uint8 { return Tstat }

func (m TstatMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	return 4
}

func DecodeTstat(buf []byte) (TstatMsg, error) {
	if len(buf) < 4 {
		return TstatMsg{}, framingErrorf("Tstat: truncated")
	}
	return TstatMsg{Fid: binary.LittleEndian.Uint32(buf[0:4])}, nil
}

type RstatMsg struct {
	Stat Stat
}

func (m RstatMsg) Type() uint8 { return Rstat }

// Encode wraps the stat in an outer u16 equal to the stat's own total
// encoded length, i.e. its leading u16 plus its body — the wire form is
// outer-size || stat-size || stat-body, with outer = stat-size + 2.
func (m RstatMsg) Encode(buf []byte) int {
	n := m.Stat.Encode(buf[2:])
	binary.LittleEndian.PutUint16(buf[0:2], uint16(n))
	return 2 + n
}

func DecodeRstat(buf []byte) (RstatMsg, error) {
	if len(buf) < 2 {
		return RstatMsg{}, framingErrorf("Rstat: truncated")
	}
	s, _, err := DecodeStat(buf[2:])
	if err != nil {
		return RstatMsg{}, err
	}
	return RstatMsg{Stat: s}, nil
}

// ---- Twstat / Rwstat ----

type TwstatMsg struct {
	Fid  uint32
	Stat Stat
}

func (m TwstatMsg) Type() uint8 { return Twstat }

func (m TwstatMsg) Encode(buf []byte) int {
	binary.LittleEndian.PutUint32(buf[0:4], m.Fid)
	n := m.Stat.Encode(buf[6:])
	binary.LittleEndian.PutUint16(buf[4:6], uint16(n))
	return 6 + n
}

func DecodeTwstat(buf []byte) (TwstatMsg, error) {
	if len(buf) < 6 {
		return TwstatMsg{}, framingErrorf("Twstat: truncated")
	}
	fid := binary.LittleEndian.Uint32(buf[0:4])
	s, _, err := DecodeStat(buf[6:])
	if err != nil {
		return TwstatMsg{}, err
	}
	return TwstatMsg{Fid: fid, Stat: s}, nil
}

type RwstatMsg struct{}

func (m RwstatMsg) Type() uint8           { return Rwstat }
func (m RwstatMsg) Encode(buf []byte) int { return 0 }
