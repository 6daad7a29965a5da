// Package llmfs implements the conversational LLM filesystem exposed via
// 9P, grounded on the teacher's own control-file layout (a directory of
// small read/write files, each a single concern) and backed by the
// Anthropic API through internal/llm.
package llmfs

import (
	"github.com/NERVsystems/ninepd/internal/llm"
	"github.com/NERVsystems/ninepd/internal/protocol"
)

// NewRoot creates the root directory of the LLM filesystem.
func NewRoot(client *llm.Client) protocol.Dir {
	root := protocol.NewStaticDir("llm")

	sm := llm.NewSessionManager(client)
	root.AddChild(NewAskFile(sm))
	root.AddChild(NewModelFile(client))
	root.AddChild(NewTemperatureFile(client))
	root.AddChild(NewThinkingFile(client))
	root.AddChild(NewPrefillFile(client))
	root.AddChild(NewTokensFile(client))
	root.AddChild(NewUsageFile(client))
	root.AddChild(NewCompactFile(client))
	root.AddChild(NewNewFile(client))
	root.AddChild(NewContextFile(client))
	root.AddChild(NewExampleFile())

	streamDir := protocol.NewStaticDir("stream")
	streamDir.AddChild(NewChunkFile(client))
	streamDir.AddChild(NewStreamAskFile(client))
	root.AddChild(streamDir)

	return root
}
