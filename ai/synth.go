package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// QueryRequest is the input of one SQL synthesis.
type QueryRequest struct {
	Question string
	Schema   string
	Dialect  string
}

// AnswerRequest is the input of one response synthesis. Result is the
// rendered query result, e.g. "[(10,)]".
type AnswerRequest struct {
	Question string
	Schema   string
	Dialect  string
	SQL      string
	Result   string
}

// QuerySynthesizer turns a question into SQL with one model call.
type QuerySynthesizer struct {
	provider Provider
	prompt   prompts.PromptTemplate
}

// NewQuerySynthesizer returns a synthesizer backed by p.
func NewQuerySynthesizer(p Provider) *QuerySynthesizer {
	return &QuerySynthesizer{provider: p, prompt: queryPrompt}
}

// Prompt renders the prompt Synthesize would send.
func (s *QuerySynthesizer) Prompt(req QueryRequest) (string, error) {
	return s.prompt.Format(map[string]any{
		"dialect":  dialectLabel(req.Dialect),
		"schema":   req.Schema,
		"question": req.Question,
	})
}

// Synthesize asks the model for SQL answering req.Question. The result
// is the completion with surrounding whitespace, code fences and a
// leading "SQL query:" label removed; it is not otherwise checked.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, req QueryRequest) (string, error) {
	prompt, err := s.Prompt(req)
	if err != nil {
		return "", fmt.Errorf("render query prompt: %w", err)
	}
	out, err := s.provider.Complete(withOperation(ctx, "query"), prompt)
	if err != nil {
		return "", err
	}
	return CleanSQL(out), nil
}

// ResponseSynthesizer phrases a query result as a natural-language
// answer with one model call.
type ResponseSynthesizer struct {
	provider Provider
	prompt   prompts.PromptTemplate
}

// NewResponseSynthesizer returns a synthesizer backed by p.
func NewResponseSynthesizer(p Provider) *ResponseSynthesizer {
	return &ResponseSynthesizer{provider: p, prompt: responsePrompt}
}

// Prompt renders the prompt Explain would send.
func (s *ResponseSynthesizer) Prompt(req AnswerRequest) (string, error) {
	return s.prompt.Format(map[string]any{
		"dialect":  dialectLabel(req.Dialect),
		"schema":   req.Schema,
		"question": req.Question,
		"query":    req.SQL,
		"result":   req.Result,
	})
}

// Explain asks the model to answer req.Question from req.Result.
func (s *ResponseSynthesizer) Explain(ctx context.Context, req AnswerRequest) (string, error) {
	prompt, err := s.Prompt(req)
	if err != nil {
		return "", fmt.Errorf("render response prompt: %w", err)
	}
	out, err := s.provider.Complete(withOperation(ctx, "response"), prompt)
	if err != nil {
		return "", err
	}
	return CleanAnswer(out), nil
}

var (
	reFence         = regexp.MustCompile("(?s)```(?:[A-Za-z0-9_-]*[ \t]*\r?\n)?(.*?)```")
	reLangTag       = regexp.MustCompile(`(?i)^(?:sql|mysql|postgresql|postgres|psql|sqlite3?|pgsql)\s+`)
	reSQLLabel      = regexp.MustCompile(`(?i)^sql(\s+query)?\s*:\s*`)
	reResponseLabel = regexp.MustCompile(`(?i)^response\s*:\s*`)
)

// CleanSQL strips the wrapping models commonly put around a statement:
// whitespace, a Markdown code fence with or without a language tag and
// a "SQL query:" label.
func CleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = reSQLLabel.ReplaceAllString(s, "")
	s = reLangTag.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// CleanAnswer strips whitespace and a leading "Response:" label.
func CleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = reResponseLabel.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func dialectLabel(d string) string {
	if d == "" {
		return "SQL"
	}
	return strings.ToUpper(d)
}
