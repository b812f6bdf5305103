package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/reasoningbank/embedder"
	"github.com/w-h-a/reasoningbank/extractor"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/strategy"
	"github.com/w-h-a/reasoningbank/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/w-h-a/reasoningbank/internal/service/engine")

// Service answers retrieval queries and runs extractions, either inline or
// on the worker pool with progress tracked in the task registry.
type Service struct {
	options   Options
	store     storer.Storer
	embedder  embedder.Embedder
	strategy  strategy.Strategy
	extractor *extractor.Extractor
	registry  *task.Registry
	pool      *pool
}

func (s *Service) Retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error) {
	ctx, span := tracer.Start(ctx, "engine.Retrieve", trace.WithAttributes(
		attribute.String("agent_id", req.AgentId),
		attribute.String("strategy", s.strategy.Name()),
	))
	defer span.End()

	rsp, err := s.retrieve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rsp, err
	}

	span.SetAttributes(
		attribute.Int("memories", len(rsp.Memories)),
		attribute.Int("skipped", rsp.Skipped),
	)

	return rsp, nil
}

func (s *Service) retrieve(ctx context.Context, req RetrieveRequest) (RetrieveResponse, error) {
	rsp := RetrieveResponse{
		Status:   StatusNoMemories,
		Memories: []RetrievedMemory{},
		Strategy: s.strategy.Name(),
	}

	if len(strings.TrimSpace(req.Query)) == 0 {
		rsp.Status = StatusError
		rsp.Message = "query is required"
		return rsp, fmt.Errorf("%w: query is empty", memory.ErrInvalidRequest)
	}

	topK := s.topK(req.TopK)
	if topK <= 0 {
		rsp.Message = "top_k is not positive, nothing to retrieve"
		return rsp, nil
	}

	query, err := s.embed(ctx, req.Query)
	if err != nil {
		rsp.Status = StatusError
		rsp.Message = "failed to embed query"
		return rsp, fmt.Errorf("%w: embed query: %w", memory.ErrCapability, err)
	}

	candidates, err := storer.Collect(s.store.List(ctx, storer.AgentScope(req.AgentId)))
	if err != nil {
		rsp.Status = StatusError
		rsp.Message = "failed to read memories"
		return rsp, fmt.Errorf("list memories: %w", err)
	}

	ranking := s.strategy.Rank(query, candidates, topK)
	rsp.Skipped = ranking.Skipped

	if ranking.Skipped > 0 {
		slog.WarnContext(ctx, "skipped malformed memories during retrieval",
			"agent_id", req.AgentId,
			"skipped", ranking.Skipped,
		)
	}

	minScore := s.options.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	for _, scored := range ranking.Ranked {
		if minScore > 0 && scored.Score < minScore {
			rsp.Filtered++
			continue
		}
		rsp.Memories = append(rsp.Memories, toRetrieved(scored))
	}

	if len(rsp.Memories) == 0 {
		rsp.Message = "no relevant memories found"
		return rsp, nil
	}

	rsp.Status = StatusSuccess
	rsp.FormattedPrompt = FormatPrompt(rsp.Memories)

	return rsp, nil
}

// topK resolves the requested count: nil takes the default and anything
// above the maximum is clamped.
func (s *Service) topK(requested *int) int {
	topK := s.options.DefaultTopK
	if requested != nil {
		topK = *requested
	}
	if s.options.MaxTopK > 0 && topK > s.options.MaxTopK {
		topK = s.options.MaxTopK
	}
	return topK
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.options.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.CallTimeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(vec) == 0 {
		return nil, errors.New("empty embedding")
	}

	return vec, nil
}

func (s *Service) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, error) {
	extractReq := extractor.Request{
		Trajectory:    memory.SortSteps(req.Trajectory),
		Query:         req.Query,
		SuccessSignal: req.SuccessSignal,
		AgentId:       req.AgentId,
	}

	if err := validate(extractReq); err != nil {
		return ExtractResponse{Status: StatusError, Message: err.Error()}, err
	}

	if req.Async {
		return s.submit(ctx, extractReq)
	}

	result, err := s.extractor.Extract(ctx, extractReq)
	if err != nil {
		return ExtractResponse{
			Status:    StatusError,
			MemoryIds: result.MemoryIds,
			Message:   err.Error(),
		}, err
	}

	return extracted(result), nil
}

func (s *Service) submit(ctx context.Context, req extractor.Request) (ExtractResponse, error) {
	t := s.registry.Submit(req.AgentId)

	if err := s.pool.enqueue(job{taskId: t.Id, req: req}); err != nil {
		// the task still has to reach a terminal state for pollers
		if startErr := s.registry.Start(t.Id); startErr == nil {
			s.registry.Fail(t.Id, err, nil)
		}

		slog.WarnContext(ctx, "rejected extraction task", "task_id", t.Id, "error", err)

		return ExtractResponse{
			Status:  StatusError,
			TaskId:  t.Id,
			Message: err.Error(),
		}, fmt.Errorf("task %s: %w", t.Id, err)
	}

	slog.InfoContext(ctx, "queued extraction task", "task_id", t.Id, "agent_id", req.AgentId)

	return ExtractResponse{
		Status:  StatusProcessing,
		TaskId:  t.Id,
		Message: "extraction started, poll get_task_status with the task id",
	}, nil
}

// handle runs one queued job. A panic fails the task instead of leaving it
// stuck in processing.
func (s *Service) handle(ctx context.Context, j job) {
	ctx, span := tracer.Start(ctx, "engine.ExtractTask", trace.WithAttributes(
		attribute.String("task_id", j.taskId),
		attribute.String("agent_id", j.req.AgentId),
	))
	defer span.End()

	if err := s.registry.Start(j.taskId); err != nil {
		slog.ErrorContext(ctx, "failed to start extraction task", "task_id", j.taskId, "error", err)
		return
	}

	var result extractor.Result

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("extraction panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.finish(ctx, j.taskId, result, err)
		}
	}()

	var err error
	result, err = s.extractor.Extract(ctx, j.req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.finish(ctx, j.taskId, result, err)
}

func (s *Service) finish(ctx context.Context, taskId string, result extractor.Result, cause error) {
	if cause != nil {
		slog.ErrorContext(ctx, "extraction task failed",
			"task_id", taskId,
			"committed", len(result.MemoryIds),
			"error", cause,
		)
		if err := s.registry.Fail(taskId, cause, result.MemoryIds); err != nil {
			slog.ErrorContext(ctx, "failed to record task failure", "task_id", taskId, "error", err)
		}
		return
	}

	if err := s.registry.Complete(taskId, result.MemoryIds); err != nil {
		slog.ErrorContext(ctx, "failed to record task completion", "task_id", taskId, "error", err)
		return
	}

	slog.InfoContext(ctx, "extraction task completed", "task_id", taskId, "memories", len(result.MemoryIds))
}

func (s *Service) TaskStatus(ctx context.Context, id string) (task.Task, error) {
	return s.registry.Get(id)
}

func (s *Service) Stats(ctx context.Context, scope storer.Scope) (Stats, error) {
	stats := Stats{
		Scope:     scope.String(),
		Dimension: s.store.Dimension(),
		Strategy:  s.strategy.Name(),
		Tasks:     s.registry.Counts(),
		Queue:     s.pool.Stats(),
	}

	for rec, err := range s.store.List(ctx, scope) {
		if err != nil {
			return Stats{}, fmt.Errorf("list memories: %w", err)
		}
		stats.Total++
		if rec.Success {
			stats.Success++
		} else {
			stats.Failure++
		}
	}

	return stats, nil
}

// Close drains queued extractions, bounded by ctx, then flushes the store.
// The store itself stays open; its owner closes it.
func (s *Service) Close(ctx context.Context) error {
	var errs []error

	if err := s.pool.stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain extraction workers: %w", err))
	}

	if err := s.store.Persist(ctx); err != nil {
		errs = append(errs, fmt.Errorf("persist store: %w", err))
	}

	return errors.Join(errs...)
}

func validate(req extractor.Request) error {
	if len(req.Trajectory) == 0 {
		return fmt.Errorf("%w: trajectory is empty", memory.ErrInvalidRequest)
	}
	if len(strings.TrimSpace(req.Query)) == 0 {
		return fmt.Errorf("%w: query is empty", memory.ErrInvalidRequest)
	}
	return nil
}

func extracted(result extractor.Result) ExtractResponse {
	success := result.Success

	rsp := ExtractResponse{
		Status:     StatusSuccess,
		MemoryIds:  result.MemoryIds,
		Success:    &success,
		Duplicates: result.Duplicates,
	}

	switch n := len(result.MemoryIds); n {
	case 0:
		rsp.Message = "trajectory yielded no new memories"
	case 1:
		rsp.MemoryId = result.MemoryIds[0]
		rsp.Message = "extracted 1 memory"
	default:
		rsp.MemoryId = result.MemoryIds[0]
		rsp.Message = fmt.Sprintf("extracted %d memories", n)
	}

	return rsp
}

func toRetrieved(scored strategy.Scored) RetrievedMemory {
	rec := scored.Record
	return RetrievedMemory{
		Id:          rec.Id,
		Score:       scored.Score,
		Title:       rec.Title,
		Description: rec.Description,
		Content:     rec.Content,
		Success:     rec.Success,
		Confidence:  rec.Confidence,
		AgentId:     rec.AgentId,
		CreatedAt:   rec.CreatedAt,
	}
}

func New(
	store storer.Storer,
	embed embedder.Embedder,
	rank strategy.Strategy,
	extract *extractor.Extractor,
	registry *task.Registry,
	opts ...Option,
) *Service {
	options := NewOptions(opts...)

	s := &Service{
		options:   options,
		store:     store,
		embedder:  embed,
		strategy:  rank,
		extractor: extract,
		registry:  registry,
	}

	s.pool = newPool(options.Workers, options.QueueSize, s.handle)

	return s
}
