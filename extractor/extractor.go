package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/strategy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/w-h-a/reasoningbank/extractor")

type Request struct {
	Trajectory []memory.Step
	Query      string
	// SuccessSignal skips the judge when set.
	SuccessSignal *bool
	AgentId       string
}

type Result struct {
	// MemoryIds lists committed records, also when an error is returned.
	MemoryIds  []string
	Success    bool
	Judged     bool
	Candidates int
	Duplicates int
}

// Extractor turns a trajectory into memories: judge, distill, embed, write.
// Nothing is written unless the first three steps succeed. Writes are not
// transactional; records committed before a failed write stay committed.
type Extractor struct {
	options Options
}

func (e *Extractor) Extract(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "extractor.Extract", trace.WithAttributes(
		attribute.String("agent_id", req.AgentId),
		attribute.Int("steps", len(req.Trajectory)),
	))
	defer span.End()

	result, err := e.extract(ctx, req)

	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.Int("memories", len(result.MemoryIds)),
		attribute.Int("duplicates", result.Duplicates),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func (e *Extractor) extract(ctx context.Context, req Request) (Result, error) {
	if len(req.Trajectory) == 0 {
		return Result{}, fmt.Errorf("%w: trajectory is empty", memory.ErrInvalidRequest)
	}

	if len(strings.TrimSpace(req.Query)) == 0 {
		return Result{}, fmt.Errorf("%w: query is empty", memory.ErrInvalidRequest)
	}

	trajectory := FormatTrajectory(req.Trajectory)

	verdict, err := e.judge(ctx, req, trajectory)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Success: verdict.Success,
		Judged:  req.SuccessSignal == nil,
	}

	items, err := e.distill(ctx, req.Query, trajectory, verdict.Success)
	if err != nil {
		return result, err
	}

	result.Candidates = len(items)

	if len(items) == 0 {
		slog.InfoContext(ctx, "trajectory yielded no memories", "agent_id", req.AgentId)
		return result, nil
	}

	records, err := e.embed(ctx, req, items, verdict)
	if err != nil {
		return result, err
	}

	records, result.Duplicates = e.dedup(ctx, req.AgentId, records)

	for _, rec := range records {
		if err := e.options.Storer.Put(ctx, rec); err != nil {
			return result, fmt.Errorf("write memory %s after %d committed: %w", rec.Id, len(result.MemoryIds), err)
		}
		result.MemoryIds = append(result.MemoryIds, rec.Id)
	}

	slog.InfoContext(ctx, "extracted memories",
		"agent_id", req.AgentId,
		"success", result.Success,
		"memories", len(result.MemoryIds),
		"duplicates", result.Duplicates,
	)

	return result, nil
}

// judge resolves the outcome. Anything short of an explicit verdict counts
// as failure so a memory is never labelled successful by accident.
func (e *Extractor) judge(ctx context.Context, req Request, trajectory string) (judgment, error) {
	if req.SuccessSignal != nil {
		return judgment{Success: *req.SuccessSignal, Confidence: 1.0, Conclusive: true}, nil
	}

	ctx, span := tracer.Start(ctx, "extractor.Judge")
	defer span.End()

	rsp, err := e.generate(ctx, judgePrompt(req.Query, trajectory), e.options.JudgeTemperature)
	if err != nil {
		span.RecordError(err)
		if e.options.StrictJudge {
			span.SetStatus(codes.Error, err.Error())
			return judgment{}, fmt.Errorf("%w: judge: %w", memory.ErrCapability, err)
		}
		slog.WarnContext(ctx, "judge call failed, treating trajectory as failure", "error", err)
		return judgment{}, nil
	}

	verdict := parseJudgment(rsp)
	if !verdict.Conclusive {
		slog.WarnContext(ctx, "inconclusive judgment, treating trajectory as failure", "response", truncate(rsp, 200))
	}

	span.SetAttributes(
		attribute.Bool("conclusive", verdict.Conclusive),
		attribute.Bool("success", verdict.Success),
	)

	return verdict, nil
}

func (e *Extractor) distill(ctx context.Context, query, trajectory string, success bool) ([]item, error) {
	ctx, span := tracer.Start(ctx, "extractor.Distill")
	defer span.End()

	limit := e.options.MaxMemories

	rsp, err := e.generate(ctx, extractPrompt(query, trajectory, success, limit), e.options.ExtractTemperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: distill: %w", memory.ErrCapability, err)
	}

	items, err := parseItems(rsp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: malformed extraction response: %w", memory.ErrCapability, err)
	}

	if len(items) > limit {
		items = items[:limit]
	}

	span.SetAttributes(attribute.Int("items", len(items)))

	return items, nil
}

func (e *Extractor) embed(ctx context.Context, req Request, items []item, verdict judgment) ([]memory.Record, error) {
	now := e.options.Now().UTC()

	records := make([]memory.Record, 0, len(items))

	for _, it := range items {
		vec, err := e.embedText(ctx, embeddingText(it.Title, it.Description, it.Content))
		if err != nil {
			return nil, fmt.Errorf("%w: embed %q: %w", memory.ErrCapability, it.Title, err)
		}

		records = append(records, memory.Record{
			Id:          "mem_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			AgentId:     req.AgentId,
			Title:       it.Title,
			Description: it.Description,
			Content:     it.Content,
			Query:       req.Query,
			Success:     verdict.Success,
			Confidence:  e.confidence(it, verdict),
			CreatedAt:   now,
			Embedding:   vec,
			Metadata:    e.provenance(),
		})
	}

	return records, nil
}

// dedup drops candidates too close to a stored memory in the same scope or
// to an earlier candidate of this batch. A failed scan keeps every
// candidate.
func (e *Extractor) dedup(ctx context.Context, agentId string, records []memory.Record) ([]memory.Record, int) {
	threshold := e.options.DedupThreshold
	if threshold <= 0 {
		return records, 0
	}

	existing, err := storer.Collect(e.options.Storer.List(ctx, storer.AgentScope(agentId)))
	if err != nil {
		slog.WarnContext(ctx, "failed to scan for duplicate memories", "agent_id", agentId, "error", err)
		return records, 0
	}

	kept := make([]memory.Record, 0, len(records))
	duplicates := 0

	for _, rec := range records {
		if match, ok := nearest(rec, existing, threshold); ok {
			slog.InfoContext(ctx, "skipping duplicate memory", "title", rec.Title, "duplicate_of", match)
			duplicates++
			continue
		}
		if match, ok := nearest(rec, kept, threshold); ok {
			slog.InfoContext(ctx, "skipping duplicate memory", "title", rec.Title, "duplicate_of", match)
			duplicates++
			continue
		}
		kept = append(kept, rec)
	}

	return kept, duplicates
}

func nearest(rec memory.Record, pool []memory.Record, threshold float64) (string, bool) {
	for _, other := range pool {
		if strategy.CosineSimilarity(rec.Embedding, other.Embedding) >= threshold {
			return other.Id, true
		}
	}
	return "", false
}

func (e *Extractor) confidence(it item, verdict judgment) float64 {
	if it.Confidence != nil && validConfidence(*it.Confidence) {
		return *it.Confidence
	}
	if verdict.Conclusive && verdict.Confidence > 0 {
		return verdict.Confidence
	}
	return e.options.DefaultConfidence
}

func (e *Extractor) provenance() map[string]string {
	meta := map[string]string{}
	if len(e.options.ExtractionModel) > 0 {
		meta["extraction_model"] = e.options.ExtractionModel
	}
	if len(e.options.EmbeddingModel) > 0 {
		meta["embedding_model"] = e.options.EmbeddingModel
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func (e *Extractor) generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	return e.options.Generator.Generate(ctx, prompt, generator.WithTemperature(temperature))
}

func (e *Extractor) embedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	vec, err := e.options.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if len(vec) == 0 {
		return nil, errors.New("empty embedding")
	}

	return vec, nil
}

func (e *Extractor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.options.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.options.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func NewExtractor(opts ...Option) (*Extractor, error) {
	options := NewOptions(opts...)

	if options.Generator == nil || options.Embedder == nil || options.Storer == nil {
		return nil, fmt.Errorf("%w: extractor requires a generator, an embedder and a storer", memory.ErrConfiguration)
	}

	if options.MaxMemories <= 0 {
		options.MaxMemories = NewOptions().MaxMemories
	}

	if options.Now == nil {
		options.Now = time.Now
	}

	return &Extractor{
		options: options,
	}, nil
}
