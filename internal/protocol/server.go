package protocol

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
)

// Logger is the minimal structured-logging surface the session loop needs.
// internal/serverlog provides a zap-backed implementation; tests may leave
// it unset, in which case logging is a no-op.
type Logger interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Errorw(msg string, kv ...any)
}

type nopLogger struct{}

func (nopLogger) Debugw(string, ...any) {}
func (nopLogger) Infow(string, ...any)  {}
func (nopLogger) Errorw(string, ...any) {}

// Server serves the 9P2000 protocol over accepted connections against a
// single root backend.
type Server struct {
	root   Dir
	log    Logger
	mu     sync.Mutex
	active map[net.Conn]struct{}
}

// NewServer returns a Server rooted at root.
func NewServer(root Dir) *Server {
	return &Server{root: root, log: nopLogger{}, active: make(map[net.Conn]struct{})}
}

// SetLogger installs a structured logger; nil restores the no-op logger.
func (s *Server) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	s.log = l
}

// Serve accepts connections on listener until ctx is done or Accept fails.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.mu.Lock()
		s.active[conn] = struct{}{}
		s.mu.Unlock()
		go func() {
			defer func() {
				s.mu.Lock()
				delete(s.active, conn)
				s.mu.Unlock()
			}()
			if err := s.ServeConn(conn); err != nil && !errors.Is(err, io.EOF) {
				s.log.Errorw("session ended with error", "remote", conn.RemoteAddr(), "err", err)
			}
		}()
	}
}

// ServeConn runs one session to completion on the calling goroutine; useful
// for tests and for embedding this server over a non-net.Listener transport
// such as net.Pipe.
func (s *Server) ServeConn(conn net.Conn) error {
	defer conn.Close()
	sess := &session{
		root: s.root,
		log:  s.log,
		fids: newFidTable(),
		dec:  NewDecoder(conn),
		enc:  NewEncoder(conn),
	}
	// When the connection ends, fids still open with ORCLOSE are removed.
	defer func() {
		sess.fids.mu.Lock()
		defer sess.fids.mu.Unlock()
		for _, e := range sess.fids.fids {
			if e.open && e.openMode&ORCLOSE != 0 {
				sess.removeEntry(e)
			}
		}
	}()
	return sess.run()
}

// session is the per-connection state machine: one in-flight request at a
// time, responses written in request order.
type session struct {
	root  Dir
	log   Logger
	fids  *fidTable
	dec   *Decoder
	enc   *Encoder
	msize uint32
}

func (sess *session) run() error {
	sess.msize = MaxMessageSize
	for {
		mtype, tag, payload, err := sess.dec.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		sess.log.Debugw("request", "type", MessageName(mtype), "tag", tag)
		respType, respPayload := sess.dispatch(mtype, payload)
		if err := sess.enc.WriteMessage(respType, tag, respPayload); err != nil {
			return err
		}
	}
}

// dispatch runs one request to completion and returns a ready-to-send
// response (type + encoded body). Semantic failures are converted to
// Rerror here; a framing-level desync in the request was already caught
// by ReadMessage and never reaches dispatch.
func (sess *session) dispatch(mtype uint8, payload []byte) (uint8, []byte) {
	switch mtype {
	case Tversion:
		return sess.handleVersion(payload)
	case Tauth:
		return errorMsg("authentication not required")
	case Tattach:
		return sess.handleAttach(payload)
	case Tflush:
		return Rflush, encode(RflushMsg{})
	case Twalk:
		return sess.handleWalk(payload)
	case Topen:
		return sess.handleOpen(payload)
	case Tcreate:
		return sess.handleCreate(payload)
	case Tread:
		return sess.handleRead(payload)
	case Twrite:
		return sess.handleWrite(payload)
	case Tclunk:
		return sess.handleClunk(payload)
	case Tremove:
		return sess.handleRemove(payload)
	case Tstat:
		return sess.handleStat(payload)
	case Twstat:
		return sess.handleWstat(payload)
	default:
		return errorMsg("unknown message type " + MessageName(mtype))
	}
}

func encode(m Message) []byte {
	// Sized generously: directory reads and writes are the largest
	// bodies this server produces, bounded by msize on the request side.
	big := make([]byte, 1<<20)
	n := m.Encode(big)
	out := make([]byte, n)
	copy(out, big[:n])
	return out
}

func errorMsg(s string) (uint8, []byte) {
	return Rerror, encode(RerrorMsg{Ename: s})
}

func errorFor(err error) (uint8, []byte) {
	return errorMsg(err.Error())
}

func (sess *session) handleVersion(payload []byte) (uint8, []byte) {
	req, err := DecodeTversion(payload)
	if err != nil {
		return errorFor(err)
	}
	// A successful Tversion resets the connection: all prior fids die.
	sess.fids.reset()
	msize := req.Msize
	if msize > MaxMessageSize {
		msize = MaxMessageSize
	}
	version := "unknown"
	if req.Version == Version {
		version = Version
		sess.msize = msize
	}
	return Rversion, encode(RversionMsg{Msize: msize, Version: version})
}

func (sess *session) handleAttach(payload []byte) (uint8, []byte) {
	req, err := DecodeTattach(payload)
	if err != nil {
		return errorFor(err)
	}
	if sess.fids.inUse(req.Fid) {
		return errorFor(ErrFidInUse)
	}
	sess.fids.bind(req.Fid, &fidEntry{node: sess.root, path: nil})
	return Rattach, encode(RattachMsg{Qid: sess.root.Stat().Qid})
}

// walkTo resolves an already-validated path list from the root; used to
// recover a parent directory's node from a fid's path slice.
func (sess *session) walkTo(names []string) (File, error) {
	var cur File = sess.root
	for _, name := range names {
		dir, isDir := cur.(Dir)
		if !isDir {
			return nil, ErrNotDir
		}
		next, err := dir.Lookup(name)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (sess *session) handleWalk(payload []byte) (uint8, []byte) {
	req, err := DecodeTwalk(payload)
	if err != nil {
		return errorFor(err)
	}
	src, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if len(req.Names) == 0 {
		if req.Fid != req.Newfid {
			if sess.fids.inUse(req.Newfid) {
				return errorFor(ErrFidInUse)
			}
			sess.fids.bind(req.Newfid, src.clone())
		}
		return Rwalk, encode(RwalkMsg{Qids: nil})
	}

	cur := src.node
	curPath := append([]string(nil), src.path...)
	qids := make([]Qid, 0, len(req.Names))
	for _, name := range req.Names {
		if name == ".." {
			if len(curPath) == 0 {
				qids = append(qids, cur.Stat().Qid)
				continue
			}
			parentNode, err := sess.walkTo(curPath[:len(curPath)-1])
			if err != nil {
				break
			}
			cur = parentNode
			curPath = curPath[:len(curPath)-1]
			qids = append(qids, cur.Stat().Qid)
			continue
		}
		dir, isDir := cur.(Dir)
		if !isDir {
			break
		}
		next, err := dir.Lookup(name)
		if err != nil {
			break
		}
		cur = next
		curPath = append(curPath, name)
		qids = append(qids, cur.Stat().Qid)
	}

	if len(qids) == 0 {
		return errorFor(ErrNotFound)
	}
	if len(qids) == len(req.Names) {
		if req.Fid != req.Newfid && sess.fids.inUse(req.Newfid) {
			return errorFor(ErrFidInUse)
		}
		sess.fids.bind(req.Newfid, &fidEntry{node: cur, path: curPath})
	}
	return Rwalk, encode(RwalkMsg{Qids: qids})
}

func (sess *session) handleOpen(payload []byte) (uint8, []byte) {
	req, err := DecodeTopen(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if e.open {
		return errorFor(ErrAlreadyOpen)
	}
	st := e.node.Stat()
	isDir := st.Mode&DMDIR != 0
	if isDir && (req.Mode&3) != OREAD {
		return errorFor(ErrIsDir)
	}
	if err := e.node.Open(req.Mode); err != nil {
		return errorFor(err)
	}
	if !isDir && req.Mode&OTRUNC != 0 {
		if t, ok := e.node.(interface{ Truncate(uint64) }); ok {
			t.Truncate(0)
		}
	}
	e.open = true
	e.openMode = req.Mode
	return Ropen, encode(RopenMsg{Qid: e.node.Stat().Qid, Iounit: 0})
}

func (sess *session) handleCreate(payload []byte) (uint8, []byte) {
	req, err := DecodeTcreate(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if e.open {
		return errorFor(ErrAlreadyOpen)
	}
	dir, isDir := e.node.(Dir)
	if !isDir {
		return errorFor(ErrNotDir)
	}
	if req.Name == "." || req.Name == ".." {
		return errorFor(ErrBadName)
	}
	child, err := dir.Create(req.Name, req.Perm, req.Mode)
	if err != nil {
		return errorFor(err)
	}
	if err := child.Open(req.Mode); err != nil {
		return errorFor(err)
	}
	e.node = child
	e.path = append(e.path, req.Name)
	e.open = true
	e.openMode = req.Mode
	return Rcreate, encode(RcreateMsg{Qid: child.Stat().Qid, Iounit: 0})
}

func (sess *session) handleRead(payload []byte) (uint8, []byte) {
	req, err := DecodeTread(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if !e.open {
		return errorFor(ErrNotOpen)
	}
	count := req.Count
	maxData := sess.msize - (4 + 1 + 2 + 4)
	if count > maxData {
		count = maxData
	}
	buf := make([]byte, count)
	var n int
	if fa, ok := e.node.(FidAwareFile); ok {
		n, err = fa.ReadFid(req.Fid, buf, int64(req.Offset))
	} else {
		n, err = e.node.Read(buf, int64(req.Offset))
	}
	if err != nil && err != io.EOF {
		return errorFor(err)
	}
	return Rread, encode(RreadMsg{Data: buf[:n]})
}

func (sess *session) handleWrite(payload []byte) (uint8, []byte) {
	req, err := DecodeTwrite(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if !e.open {
		return errorFor(ErrNotOpen)
	}
	if e.openMode&3 == OREAD {
		return errorFor(ErrPermission)
	}
	if _, isDir := e.node.(Dir); isDir {
		return errorFor(ErrIsDir)
	}
	var n int
	if fa, ok := e.node.(FidAwareFile); ok {
		n, err = fa.WriteFid(req.Fid, req.Data, int64(req.Offset))
	} else {
		n, err = e.node.Write(req.Data, int64(req.Offset))
	}
	if err != nil {
		return errorFor(err)
	}
	return Rwrite, encode(RwriteMsg{Count: uint32(n)})
}

func (sess *session) handleClunk(payload []byte) (uint8, []byte) {
	req, err := DecodeTclunk(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.remove(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if fa, ok := e.node.(FidAwareFile); ok {
		fa.CloseFid(req.Fid)
	} else {
		e.node.Close()
	}
	if e.open && e.openMode&ORCLOSE != 0 {
		sess.removeEntry(e)
	}
	return Rclunk, encode(RclunkMsg{})
}

func (sess *session) handleRemove(payload []byte) (uint8, []byte) {
	req, err := DecodeTremove(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.remove(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	if len(e.path) == 0 {
		return errorFor(ErrIsRoot)
	}
	if err := sess.removeEntry(e); err != nil {
		return errorFor(err)
	}
	return Rremove, encode(RremoveMsg{})
}

// removeEntry removes the node e refers to from its parent directory. The
// fid itself is assumed already destroyed by the caller; this only touches
// the backend namespace, and is called even when the caller will discard
// its error (remove-on-clunk is best-effort).
func (sess *session) removeEntry(e *fidEntry) error {
	if len(e.path) == 0 {
		return ErrIsRoot
	}
	parentNode, err := sess.walkTo(e.path[:len(e.path)-1])
	if err != nil {
		return err
	}
	parent, ok := parentNode.(Dir)
	if !ok {
		return ErrNotDir
	}
	return parent.Remove(e.path[len(e.path)-1])
}

func (sess *session) handleStat(payload []byte) (uint8, []byte) {
	req, err := DecodeTstat(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	return Rstat, encode(RstatMsg{Stat: e.node.Stat()})
}

func (sess *session) handleWstat(payload []byte) (uint8, []byte) {
	req, err := DecodeTwstat(payload)
	if err != nil {
		return errorFor(err)
	}
	e, ok := sess.fids.get(req.Fid)
	if !ok {
		return errorFor(ErrBadFid)
	}
	newStat := req.Stat
	if newStat.Uid != "" && newStat.Uid != e.node.Stat().Uid {
		return errorFor(ErrUnsupported)
	}
	// The rename is the only change that can fail, so it runs first and
	// mode/length are applied only once it has succeeded.
	if newStat.Name != "" {
		if len(e.path) == 0 {
			return errorFor(ErrIsRoot)
		}
		oldName := e.path[len(e.path)-1]
		if newStat.Name != oldName {
			parentNode, err := sess.walkTo(e.path[:len(e.path)-1])
			if err != nil {
				return errorFor(err)
			}
			parent, ok := parentNode.(Dir)
			if !ok {
				return errorFor(ErrNotDir)
			}
			if err := parent.Rename(oldName, newStat.Name); err != nil {
				return errorFor(err)
			}
			e.path[len(e.path)-1] = newStat.Name
		}
	}
	if newStat.Mode != NoTouchU32 {
		if mw, ok := e.node.(interface{ SetMode(uint32) }); ok {
			mw.SetMode(newStat.Mode)
		}
	}
	if newStat.Length != NoTouchU64 {
		if t, ok := e.node.(interface{ Truncate(uint64) }); ok {
			t.Truncate(newStat.Length)
		}
	}
	return Rwstat, encode(RwstatMsg{})
}
