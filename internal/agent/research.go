package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/futurelens/futurelens/pkg/models"
)

// Agent runs the individual pipeline stages against the injected
// text-generation and web-search backends.
type Agent struct {
	Generator  models.TextGenerator
	Searcher   models.WebSearcher
	MaxResults int
	Logger     *slog.Logger
}

func New(generator models.TextGenerator, searcher models.WebSearcher, maxResults int, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Agent{Generator: generator, Searcher: searcher, MaxResults: maxResults, Logger: logger}
}

// QueryFindings pairs a research question with its raw search hits,
// preserving the order the questions were asked in.
type QueryFindings struct {
	Question string
	Results  []models.SearchResult
}

// ResearchResult is the output of the research stage.
type ResearchResult struct {
	Questions      []string
	Findings       []QueryFindings
	CompanyContext string
}

const questionsSystemPrompt = "You are a strategic research analyst. Generate focused, actionable research questions."

const synthesisSystemPrompt = "You are a strategic analyst synthesizing research into actionable insights."

// Research generates research questions about the company, searches the web
// for each, and synthesizes the findings into a company context. Every
// sub-step degrades instead of failing: bad question output falls back to a
// default question set, a failed search yields empty findings, and a failed
// synthesis yields a stub context. Only context cancellation aborts.
func (a *Agent) Research(ctx context.Context, companyName string) (*ResearchResult, error) {
	questions, err := a.generateQuestions(ctx, companyName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.Logger.Warn("question generation failed, using defaults", "company", companyName, "error", err)
		questions = DefaultQuestions(companyName)
	}

	findings := make([]QueryFindings, 0, len(questions))
	for i, question := range questions {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.Logger.Info("searching", "question_index", i+1, "question_count", len(questions), "question", question)
		results, err := a.Searcher.Search(ctx, question, a.MaxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.Logger.Warn("search failed, continuing with empty findings", "question", question, "error", err)
			results = nil
		}
		findings = append(findings, QueryFindings{Question: question, Results: results})
	}

	companyContext, err := a.synthesize(ctx, companyName, findings)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.Logger.Warn("context synthesis failed, using stub context", "company", companyName, "error", err)
		companyContext = fmt.Sprintf("Research completed for %s. Analysis of %d research areas.", companyName, len(questions))
	}

	return &ResearchResult{
		Questions:      questions,
		Findings:       findings,
		CompanyContext: companyContext,
	}, nil
}

func (a *Agent) generateQuestions(ctx context.Context, companyName string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate 5-7 strategic research questions about %s that would help understand:
1. Business model and revenue streams
2. Competitive landscape and market position
3. Emerging technologies affecting the industry
4. Regulatory environment and compliance requirements
5. Strategic priorities and growth opportunities
6. Market trends and disruptions
7. Key threats and challenges

Return ONLY a JSON object of the form {"questions": ["Question 1?", "Question 2?", ...]}, no other text.`, companyName)

	response, err := a.Generator.Generate(ctx, models.GenerateRequest{
		Prompt:    prompt,
		System:    questionsSystemPrompt,
		MaxTokens: 500,
		JSONMode:  true,
	})
	if err != nil {
		return nil, err
	}

	questions, err := decodeRecords[string](response, "questions")
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty question list", ErrMalformedPayload)
	}
	return questions, nil
}

// synthFinding is the trimmed view of a search hit fed back to the generator.
// Findings are truncated to stay inside the completion token budget.
type synthFinding struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (a *Agent) synthesize(ctx context.Context, companyName string, findings []QueryFindings) (string, error) {
	summarized := make(map[string][]synthFinding, len(findings))
	for _, f := range findings {
		trimmed := make([]synthFinding, 0, 2)
		for _, r := range f.Results {
			if len(trimmed) == 2 {
				break
			}
			trimmed = append(trimmed, synthFinding{
				Title:   truncate(r.Title, 200),
				URL:     r.URL,
				Content: truncate(r.Content, 500),
			})
		}
		summarized[f.Question] = trimmed
	}

	encoded, err := json.MarshalIndent(summarized, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Based on the following research about %s, synthesize a comprehensive company context.

Research Questions and Findings:
%s

Create a comprehensive company context covering:
1. Industry and market position
2. Business model and revenue streams
3. Competitive landscape
4. Emerging technologies and trends
5. Regulatory environment
6. Strategic priorities
7. Key threats and opportunities

Format as a well-structured text document (2-3 pages equivalent).`, companyName, encoded)

	return a.Generator.Generate(ctx, models.GenerateRequest{
		Prompt:    prompt,
		System:    synthesisSystemPrompt,
		MaxTokens: 2000,
	})
}

// DefaultQuestions is the hand-authored fallback question set. Deterministic:
// the same company name always yields the same questions.
func DefaultQuestions(companyName string) []string {
	return []string{
		fmt.Sprintf("What is %s's business model and revenue streams?", companyName),
		fmt.Sprintf("Who are %s's main competitors?", companyName),
		fmt.Sprintf("What emerging technologies are affecting %s's industry?", companyName),
		fmt.Sprintf("What regulatory challenges does %s face?", companyName),
		fmt.Sprintf("What are %s's strategic priorities?", companyName),
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
