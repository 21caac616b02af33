package service

import (
	"context"
	"errors"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/insights"
	"github.com/andresuchdata/stockwatch/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	InsightSourceModel    = "model"
	InsightSourceFallback = "fallback"

	sqlMaxRows    = 1000
	sqlPromptRows = 50
)

// ErrEmptyQuestion is returned by AskSQL when there is nothing to translate.
var ErrEmptyQuestion = errors.New("question is required")

type InsightsService struct {
	inventory *InventoryService
	completer insights.Completer
	querier   repository.ReadOnlyQuerier
}

// NewInsightsService wires the completer and, for warehouse sources, the
// read-only querier used by AskSQL. Either may be nil.
func NewInsightsService(inventory *InventoryService, completer insights.Completer, querier repository.ReadOnlyQuerier) *InsightsService {
	if completer == nil {
		completer = insights.NoopCompleter{}
	}
	return &InsightsService{inventory: inventory, completer: completer, querier: querier}
}

// Insight is an answer about the current snapshot.
type Insight struct {
	Question     string `json:"question,omitempty"`
	Answer       string `json:"answer"`
	Source       string `json:"source"`
	SnapshotDate string `json:"snapshot_date"`
}

// Ask answers question, or produces a general analysis when question is empty.
// Without a model the answer is a summary built from the overview.
func (s *InsightsService) Ask(ctx context.Context, filter domain.InventoryFilter, question string) (*Insight, error) {
	overview, err := s.inventory.GetOverview(ctx, filter)
	if err != nil {
		return nil, err
	}

	question = strings.TrimSpace(question)
	prompt := insights.BuildInsightsPrompt(*overview)
	if question != "" {
		prompt = insights.BuildChatPrompt(question, *overview)
	}

	result := &Insight{Question: question, SnapshotDate: overview.SnapshotDate}

	answer, err := s.completer.Complete(ctx, prompt)
	switch {
	case err == nil:
		result.Answer, result.Source = answer, InsightSourceModel
	case errors.Is(err, insights.ErrUnavailable):
		result.Answer, result.Source = insights.FallbackSummary(*overview), InsightSourceFallback
	default:
		return nil, err
	}

	log.Info().Str("source", result.Source).Bool("question", question != "").Msg("insights: answered")
	return result, nil
}

// SQLInsight is an answer produced by running model generated SQL.
type SQLInsight struct {
	Question string              `json:"question"`
	SQL      string              `json:"sql,omitempty"`
	Answer   string              `json:"answer"`
	Source   string              `json:"source"`
	RowCount int                 `json:"row_count"`
	Result   *domain.QueryResult `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// AskSQL translates question into a SELECT, runs it read-only and has the model
// explain the rows. Rejected or failing queries are explained instead. Without a
// model or a querier the question is answered from the overview by Ask.
func (s *InsightsService) AskSQL(ctx context.Context, filter domain.InventoryFilter, question string) (*SQLInsight, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if s.querier == nil {
		return s.askFromOverview(ctx, filter, question)
	}

	raw, err := s.completer.Complete(ctx, insights.BuildSQLGenerationPrompt(question))
	if errors.Is(err, insights.ErrUnavailable) {
		return s.askFromOverview(ctx, filter, question)
	}
	if err != nil {
		return nil, err
	}

	out := &SQLInsight{Question: question, Source: InsightSourceModel, SQL: insights.CleanSQL(raw)}

	var prompt string
	query, err := insights.ValidateSelect(raw)
	if err == nil {
		var result *domain.QueryResult
		if result, err = s.querier.QueryReadOnly(ctx, query, sqlMaxRows); err == nil {
			out.Result, out.RowCount = result, len(result.Rows)
			prompt = insights.BuildSQLAnswerPrompt(question, query, result, sqlPromptRows)
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("sql", out.SQL).Msg("insights: generated query failed")
		out.Error = err.Error()
		prompt = insights.BuildSQLErrorPrompt(question, out.SQL, err.Error())
	}

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out.Answer = answer

	log.Info().Int("rows", out.RowCount).Bool("failed", out.Error != "").Msg("insights: sql answered")
	return out, nil
}

func (s *InsightsService) askFromOverview(ctx context.Context, filter domain.InventoryFilter, question string) (*SQLInsight, error) {
	insight, err := s.Ask(ctx, filter, question)
	if err != nil {
		return nil, err
	}
	return &SQLInsight{Question: insight.Question, Answer: insight.Answer, Source: insight.Source}, nil
}
