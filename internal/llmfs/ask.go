package llmfs

import (
	"context"
	"io"
	"strings"

	"github.com/NERVsystems/ninepd/internal/llm"
	"github.com/NERVsystems/ninepd/internal/protocol"
)

// CompactThreshold is the fraction of the context limit at which a write to
// ask triggers automatic compaction before the prompt is sent.
const CompactThreshold = 0.80

// AskFile is the conversational entry point. Each fid that opens it gets its
// own session via the SessionManager, so two clients talking to the same
// filesystem never see each other's history.
type AskFile struct {
	*protocol.BaseFile
	sm *llm.SessionManager
}

// NewAskFile creates the ask file backed by sm.
func NewAskFile(sm *llm.SessionManager) *AskFile {
	return &AskFile{
		BaseFile: protocol.NewBaseFile("ask", 0666),
		sm:       sm,
	}
}

var _ protocol.FidAwareFile = (*AskFile)(nil)

// ReadFid returns the response the fid's own session last produced.
func (f *AskFile) ReadFid(fid uint32, p []byte, offset int64) (int, error) {
	session := f.sm.Get(fid)
	if session == nil {
		return 0, io.EOF
	}
	content := session.LastResponse()
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if offset >= int64(len(content)) {
		return 0, io.EOF
	}
	return copy(p, content[offset:]), nil
}

// WriteFid sends the written prompt through the fid's session, auto-
// compacting the shared backend first if usage has crossed CompactThreshold.
func (f *AskFile) WriteFid(fid uint32, p []byte, offset int64) (int, error) {
	prompt := strings.TrimSpace(string(p))
	if prompt == "" {
		return 0, nil
	}

	ctx := context.Background()
	backend := f.sm.Backend()
	if limit := backend.ContextLimit(); limit > 0 {
		if tokens := backend.TotalTokens(); tokens > int(float64(limit)*CompactThreshold) {
			backend.Compact(ctx)
		}
	}

	// sm.Ask stores either the response or an "Error: ..." message on the
	// session itself; the write always reports success once the request
	// was made, matching the original distillation's write-then-read idiom.
	f.sm.Ask(ctx, fid, prompt)
	return len(p), nil
}

// CloseFid drops the fid's session along with its history.
func (f *AskFile) CloseFid(fid uint32) error {
	f.sm.Remove(fid)
	return nil
}

// Stat reports zero length: the response length is per-fid, and Stat has
// no fid context to report it for.
func (f *AskFile) Stat() protocol.Stat {
	s := f.BaseFile.Stat()
	s.Length = 0
	return s
}
