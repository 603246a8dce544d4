package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/amishk599/insightd/internal/model"
)

// TransformerConfig describes one completion stage.
type TransformerConfig struct {
	Name         string
	Model        string
	Instructions string // text/template; {{.SearchWord}} is available
	MaxTokens    int    // input budget; the prepared text is cut to this many tokens
	StripHTML    bool
}

// Transformer sends text through a single model call with fixed instructions.
type Transformer struct {
	name      string
	model     string
	tmpl      *template.Template
	maxTokens int
	stripHTML bool
	provider  LLMProvider
	tokenizer Tokenizer
}

// NewTransformer parses cfg.Instructions and returns a ready stage. A positive
// MaxTokens requires a tokenizer.
func NewTransformer(cfg TransformerConfig, provider LLMProvider, tokenizer Tokenizer) (*Transformer, error) {
	if cfg.MaxTokens > 0 && tokenizer == nil {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, ErrNoTokenizer)
	}
	tmpl, err := template.New(cfg.Name).Option("missingkey=zero").Parse(cfg.Instructions)
	if err != nil {
		return nil, fmt.Errorf("parse instructions for stage %s: %w", cfg.Name, err)
	}
	return &Transformer{
		name:      cfg.Name,
		model:     cfg.Model,
		tmpl:      tmpl,
		maxTokens: cfg.MaxTokens,
		stripHTML: cfg.StripHTML,
		provider:  provider,
		tokenizer: tokenizer,
	}, nil
}

// Name returns the stage name used in logs and errors.
func (t *Transformer) Name() string { return t.name }

// Prepare reduces text to what is sent to the model: visible text only when
// the stage strips HTML, whitespace collapsed, and cut to the token budget.
func (t *Transformer) Prepare(text string) string {
	if t.stripHTML {
		text = ExtractText(text)
	} else {
		text = collapseWhitespace(text)
	}
	return Truncate(t.tokenizer, text, t.maxTokens)
}

// Transform runs one completion and returns its trimmed output. Failures and
// empty output come back as *model.TransformError.
func (t *Transformer) Transform(ctx context.Context, searchWord, text string) (string, error) {
	var instr bytes.Buffer
	if err := t.tmpl.Execute(&instr, struct{ SearchWord string }{SearchWord: searchWord}); err != nil {
		return "", &model.TransformError{Stage: t.name, Err: fmt.Errorf("render instructions: %w", err)}
	}

	out, err := t.provider.Complete(ctx, CompletionRequest{
		Model:  t.model,
		System: instr.String(),
		User:   t.Prepare(text),
	})
	if err != nil {
		return "", &model.TransformError{Stage: t.name, Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &model.TransformError{Stage: t.name, Err: model.ErrNoOutput}
	}
	return out, nil
}

// Stage is one step in a Chain.
type Stage interface {
	Name() string
	Transform(ctx context.Context, searchWord, text string) (string, error)
}

// Chain runs stages in order, feeding each stage the previous stage's output.
type Chain struct {
	stages []Stage
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run returns the last stage's output, or the first stage error.
func (c *Chain) Run(ctx context.Context, searchWord, text string) (string, error) {
	out := text
	for _, s := range c.stages {
		next, err := s.Transform(ctx, searchWord, out)
		if err != nil {
			return "", err
		}
		out = next
	}
	return out, nil
}

// Stages returns the stage names in run order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}
