package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/pkg/logger"
	"github.com/doeshing/datatalk/internal/ports"
)

// Controller owns one chat session: it sends questions to the backend and
// keeps the view-model every surface renders from.
type Controller struct {
	Backend   ports.QueryBackend
	Renderer  ports.ResponseRenderer
	Cache     ports.CacheRepository
	CacheKey  func(question string) string
	History   ports.HistoryRepository
	Indicator ports.LoadingIndicator
	Recorder  ports.Recorder
	Logger    ports.Logger

	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	view domain.ChatView
}

// NewController builds a controller. Cache, History, Indicator and Recorder
// are optional and may be set on the returned value.
func NewController(backend ports.QueryBackend, renderer ports.ResponseRenderer, logger ports.Logger) *Controller {
	return &Controller{
		Backend:  backend,
		Renderer: renderer,
		Logger:   logger,
	}
}

// View returns a copy of the current view-model.
func (c *Controller) View() domain.ChatView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// Submit sends input as a question. sent is false when the trimmed input is
// blank, in which case nothing else happens.
func (c *Controller) Submit(ctx context.Context, input string) (outcome domain.Outcome, sent bool) {
	question, ok := domain.NormalizeQuestion(input)
	if !ok {
		return domain.Outcome{}, false
	}
	if c.Backend == nil || c.Renderer == nil {
		outcome = domain.Outcome{Question: question, Err: errors.New("query controller dependencies not satisfied")}
		outcome.Summary = domain.ErrorSummary(outcome.Err)
		return outcome, true
	}

	started := c.clock()
	c.begin(question, started)

	outcome = c.answer(ctx, question)
	outcome.Question = question
	outcome.Duration = c.clock().Sub(started)

	c.finish(outcome)
	c.record(ctx, outcome, started)
	return outcome, true
}

func (c *Controller) begin(question string, at time.Time) {
	c.mu.Lock()
	c.view.Messages = append(c.view.Messages, domain.Message{
		ID:   c.id(),
		Role: domain.RoleUser,
		Text: question,
		At:   at,
	})
	c.view.Loading = true
	c.view.ResultsVisible = false
	c.mu.Unlock()

	if c.Indicator != nil {
		c.Indicator.Show()
	}
}

func (c *Controller) finish(outcome domain.Outcome) {
	if c.Indicator != nil {
		c.Indicator.Hide()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Summary = outcome.Summary
	c.view.TableHTML = outcome.TableHTML
	c.view.Rows = outcome.Rows
	c.view.Loading = false
	c.view.ResultsVisible = true
	c.view.Messages = append(c.view.Messages, domain.Message{
		ID:   c.id(),
		Role: domain.RoleAssistant,
		Text: outcome.Summary,
		At:   c.clock(),
	})
}

func (c *Controller) answer(ctx context.Context, question string) domain.Outcome {
	resp, fromCache, err := c.fetch(ctx, question)
	if err != nil {
		c.log().Warn("query failed", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return domain.Outcome{Err: err, Summary: domain.ErrorSummary(err)}
	}

	table, rows := c.Renderer.Table(resp.DataResult)
	return domain.Outcome{
		Summary:   c.Renderer.Summary(resp),
		TableHTML: table,
		Rows:      rows,
		FromCache: fromCache,
	}
}

func (c *Controller) fetch(ctx context.Context, question string) (domain.QueryResponse, bool, error) {
	key := c.cacheKey(question)
	if key != "" {
		if resp, ok := c.lookup(ctx, key); ok {
			return resp, true, nil
		}
	}

	resp, err := c.Backend.Query(ctx, question)
	if err != nil {
		return domain.QueryResponse{}, false, err
	}

	if key != "" {
		c.store(ctx, key, question, resp)
	}
	return resp, false, nil
}

func (c *Controller) lookup(ctx context.Context, key string) (domain.QueryResponse, bool) {
	entry, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.log().Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		ok = false
	}
	if c.Recorder != nil {
		c.Recorder.ObserveCacheLookup(ok)
	}
	if !ok {
		return domain.QueryResponse{}, false
	}

	var resp domain.QueryResponse
	if err := json.Unmarshal(entry.Response, &resp); err != nil {
		c.log().Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return domain.QueryResponse{}, false
	}
	c.log().Debug("cache hit", map[string]interface{}{"key": key})
	return resp, true
}

func (c *Controller) store(ctx context.Context, key, question string, resp domain.QueryResponse) {
	raw, err := json.Marshal(resp)
	if err == nil {
		err = c.Cache.Set(ctx, domain.CacheEntry{
			Key:       key,
			Question:  question,
			Response:  raw,
			CreatedAt: c.clock(),
		})
	}
	if err != nil {
		c.log().Warn("cache store failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Controller) record(ctx context.Context, outcome domain.Outcome, at time.Time) {
	status := domain.ExchangeOK
	if outcome.Failed() {
		status = domain.ExchangeError
	}

	if c.Recorder != nil {
		c.Recorder.ObserveSubmission(status, outcome.Duration)
		if !outcome.Failed() {
			c.Recorder.ObserveRows(len(outcome.Rows))
		}
	}

	if c.History == nil {
		return
	}
	exchange := domain.Exchange{
		ID:         c.id(),
		Timestamp:  at,
		Question:   outcome.Question,
		Summary:    outcome.Summary,
		RowCount:   len(outcome.Rows),
		Status:     status,
		DurationMS: outcome.Duration.Milliseconds(),
		FromCache:  outcome.FromCache,
	}
	if outcome.Err != nil {
		exchange.Error = outcome.Err.Error()
	}
	// history is best effort; a broken store never fails the submission
	if err := c.History.Save(context.WithoutCancel(ctx), exchange); err != nil {
		c.log().Warn("history save failed", map[string]interface{}{"error": fmt.Sprint(err)})
	}
}

func (c *Controller) cacheKey(question string) string {
	if c.Cache == nil || c.CacheKey == nil {
		return ""
	}
	return c.CacheKey(question)
}

func (c *Controller) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Controller) id() string {
	if c.newID != nil {
		return c.newID()
	}
	return uuid.NewString()
}

func (c *Controller) log() ports.Logger {
	if c.Logger == nil {
		return logger.NewNop()
	}
	return c.Logger
}

