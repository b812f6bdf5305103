package reasoningbank

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/reasoningbank/embedder"
	"github.com/w-h-a/reasoningbank/embedder/hash"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/storer/file"
	"github.com/w-h-a/reasoningbank/strategy/hybrid"
	"github.com/w-h-a/reasoningbank/task"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
)

// judgeThenDistill answers the judge with a failure verdict and the
// distillation with one lesson.
type judgeThenDistill struct{}

func (judgeThenDistill) Generate(_ context.Context, prompt string, _ ...generator.GenerateOption) (string, error) {
	if strings.Contains(prompt, "expert evaluator") {
		return `{"result": "failure", "confidence": 0.6, "reason": "the wrong item was bought"}`, nil
	}
	return `{"memories": [{"title": "Check the colour before buying", "description": "Shopping for a specific variant", "content": "Do not add the first result to the cart; confirm the colour matches first."}]}`, nil
}

func newBank(t *testing.T, dir string, opts ...Option) *Bank {
	t.Helper()

	store, err := file.NewStorer(storer.WithLocation(dir))
	require.NoError(t, err)

	b, err := New(
		store,
		hash.NewEmbedder(embedder.WithDimensions(48)),
		judgeThenDistill{},
		hybrid.NewStrategy(),
		opts...,
	)
	require.NoError(t, err)

	return b
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil, nil, nil)
	assert.ErrorIs(t, err, memory.ErrConfiguration)
}

func TestBank_JudgedExtractionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := newBank(t, dir, WithModelNames("test-llm", "hash"), WithTaskRetention(8, time.Minute))

	rsp, err := b.Extract(ctx, ExtractRequest{
		Trajectory: []memory.Step{
			{Step: 2, Role: "assistant", Content: "added the first kettle to the cart"},
			{Step: 1, Role: "user", Content: "buy the blue kettle"},
		},
		Query:   "buy the blue kettle",
		AgentId: "shopper",
		Async:   true,
	})
	require.NoError(t, err)

	var got task.Task
	require.Eventually(t, func() bool {
		var err error
		got, err = b.TaskStatus(ctx, rsp.TaskId)
		return err == nil && got.State.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, task.StateCompleted, got.State)
	require.Len(t, got.MemoryIds, 1)

	require.NoError(t, b.Close(ctx))

	reopened := newBank(t, dir)
	defer reopened.Close(ctx)

	found, err := reopened.Retrieve(ctx, RetrieveRequest{Query: "buy a kettle in a given colour", AgentId: "shopper"})
	require.NoError(t, err)
	require.Len(t, found.Memories, 1)

	mem := found.Memories[0]
	assert.Equal(t, got.MemoryIds[0], mem.Id)
	assert.False(t, mem.Success)
	assert.Equal(t, 0.6, mem.Confidence)
	assert.Contains(t, found.FormattedPrompt, "[✗ Failure lesson] - Check the colour before buying")

	stats, err := reopened.Stats(ctx, storer.AllScope())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failure)
}

func TestBank_ToolHandlers(t *testing.T) {
	b := newBank(t, t.TempDir())
	defer b.Close(context.Background())

	handlers := b.ToolHandlers()
	require.Len(t, handlers, 4)

	rsp, err := handlers[0].Invoke(context.Background(), toolhandler.ToolRequest{Arguments: map[string]any{"query": "anything"}})
	require.NoError(t, err)
	assert.Contains(t, rsp.Content, `"status": "no_memories"`)
}
