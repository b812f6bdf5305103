package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

type config struct {
	Config kong.ConfigFlag `help:"Path to a YAML config file. Keys are flag names in snake_case, e.g. 'log_level: debug'."`

	// Transport config
	Transport string `help:"How tools are served" enum:"stdio,sse,http" default:"stdio"`
	Address   string `help:"Listen address for the sse and http transports" default:":8080"`

	// Storage config
	Storage   string `help:"Memory store backend" enum:"file,postgres" default:"file"`
	Location  string `help:"Directory or file for the file store, connection string for postgres" default:"./data"`
	Dimension int    `help:"Embedding dimension the store enforces; 0 adopts the first record's" default:"0"`

	// Generator config
	Generator        string `help:"LLM provider for judging and distilling" enum:"openai,anthropic,google,dashscope" default:"openai"`
	GeneratorModel   string `help:"Model identifier for the generator" default:"gpt-4o-mini"`
	GeneratorApiKey  string `help:"API key for the generator" default:""`
	GeneratorBaseUrl string `help:"Override the generator endpoint" default:""`
	MaxTokens        int    `help:"Completion token limit" default:"1024"`

	// Embedder config
	Embedder           string `help:"Embedding provider" enum:"openai,google,dashscope,hash" default:"openai"`
	EmbedderModel      string `help:"Model identifier for embeddings" default:"text-embedding-3-small"`
	EmbedderApiKey     string `help:"API key for the embedder; defaults to the generator key" default:""`
	EmbedderBaseUrl    string `help:"Override the embedder endpoint" default:""`
	EmbedderDimensions int    `help:"Requested embedding size, where the provider supports it" default:"0"`

	// Retrieval config
	Strategy         string        `help:"Ranking strategy" enum:"cosine,hybrid" default:"hybrid"`
	SemanticWeight   float64       `help:"Hybrid weight of query similarity" default:"0.6"`
	ConfidenceWeight float64       `help:"Hybrid weight of memory confidence" default:"0.2"`
	SuccessWeight    float64       `help:"Hybrid weight of the success signal" default:"0.15"`
	RecencyWeight    float64       `help:"Hybrid weight of recency" default:"0.05"`
	HalfLife         time.Duration `help:"Age at which the recency signal halves" default:"720h"`
	FailureValue     float64       `help:"Success signal of failure lessons; negative penalises them" default:"0"`
	DefaultTopK      int           `help:"Memories returned when a query names no count" default:"1"`
	MaxTopK          int           `help:"Most memories a query may ask for" default:"10"`
	MinScore         float64       `help:"Drop ranked memories scoring below this; 0 disables" default:"0"`

	// Extraction config
	MaxMemories        int           `help:"Memories kept per trajectory" default:"3"`
	JudgeTemperature   float64       `help:"Sampling temperature of the judge" default:"0"`
	ExtractTemperature float64       `help:"Sampling temperature of distillation" default:"1"`
	DedupThreshold     float64       `help:"Skip memories this similar to an existing one; 0 disables" default:"0.9"`
	StrictJudge        bool          `help:"Abort extraction when the judge call fails instead of assuming failure"`
	Workers            int           `help:"Background extraction workers" default:"4"`
	QueueSize          int           `help:"Queued extractions before new ones are rejected" default:"64"`
	CallTimeout        time.Duration `help:"Timeout of each model call" default:"60s"`
	TaskRetention      int           `help:"Finished tasks kept for polling" default:"1024"`
	TaskTtl            time.Duration `help:"How long a finished task stays visible" default:"1h"`

	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
}

// yamlLoader feeds a YAML file to kong's JSON resolver.
func yamlLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("convert yaml config: %w", err)
	}

	return kong.JSON(bytes.NewReader(raw))
}

func (c *config) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
