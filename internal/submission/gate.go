// Package submission accepts survey submissions: it checks the token and the
// client, validates and normalises the stats, and stores them exactly once.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/model"
	"github.com/Lemmmy/SCHardwareSurvey/internal/quote"
	"github.com/Lemmmy/SCHardwareSurvey/internal/repository"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

const defaultQuoteTimeout = 500 * time.Millisecond

// Store persists a submission. Insert must fail with
// repository.ErrDuplicateToken when the token is already stored.
type Store interface {
	Insert(ctx context.Context, s *model.Submission) error
}

// Request is one submission as received over HTTP.
type Request struct {
	Token     string
	UserAgent string
	// Body is the raw JSON request body, {"stats": {...}}.
	Body []byte
}

// Result is returned for an accepted submission.
type Result struct {
	UpliftHeadThought string
}

type Options struct {
	Store        Store
	AllowList    *stats.AllowList
	MCVersion    string
	ModVersion   string
	Quotes       quote.Provider
	QuoteTimeout time.Duration
	Logger       zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Gate runs the submission checks in order and stops at the first failure.
type Gate struct {
	store        Store
	allow        *stats.AllowList
	client       *ClientMatcher
	quotes       quote.Provider
	quoteTimeout time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func New(opts Options) *Gate {
	g := &Gate{
		store:        opts.Store,
		allow:        opts.AllowList,
		client:       NewClientMatcher(opts.MCVersion, opts.ModVersion),
		quotes:       opts.Quotes,
		quoteTimeout: opts.QuoteTimeout,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.quoteTimeout <= 0 {
		g.quoteTimeout = defaultQuoteTimeout
	}
	return g
}

// ParseToken checks that raw is a canonical 8-4-4-4-12 hex token. Hex digits
// may be in either case; the parsed value is case-free, so the upper and lower
// case spellings of a token are the same token and can only be submitted once.
func ParseToken(raw string) (uuid.UUID, bool) {
	if !tokenPattern.MatchString(raw) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type body struct {
	Stats json.RawMessage `json:"stats"`
}

func parseStats(raw []byte) (stats.Record, bool) {
	var b body
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil || len(b.Stats) == 0 {
		return nil, false
	}
	rec, err := stats.ParseRecord(b.Stats)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Submit validates req and stores it. Rejections are returned as *Error.
func (g *Gate) Submit(ctx context.Context, req Request) (*Result, error) {
	token, ok := ParseToken(req.Token)
	if !ok {
		return nil, reject(CodeInvalidToken)
	}
	rec, ok := parseStats(req.Body)
	if !ok {
		return nil, reject(CodeMissingStats)
	}
	if !g.client.Match(req.UserAgent) {
		return nil, reject(CodeInvalidClient)
	}

	if err := stats.Validate(rec, g.allow); err != nil {
		var statErr *stats.InvalidStatError
		if errors.As(err, &statErr) {
			return nil, &Error{Code: CodeInvalidStat, Stat: statErr.Stat, Err: err}
		}
		return nil, &Error{Code: CodeInvalidStat, Err: err}
	}
	if err := stats.Collapse(rec); err != nil {
		return nil, &Error{Code: CodeInvalidJvmArgs, Err: err}
	}

	sub := &model.Submission{
		Token:     token,
		Stats:     rec,
		CreatedAt: g.now().UTC(),
	}
	if err := g.store.Insert(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateToken) {
			return nil, &Error{Code: CodeAlreadySubmitted, Err: err}
		}
		g.logger.Error().Err(err).Str("token", token.String()).Msg("could not store submission")
		return nil, &Error{Code: CodeUnknownError, Err: err}
	}

	g.logger.Info().Str("token", token.String()).Int("stats", len(rec)).Msg("stored submission")
	return &Result{UpliftHeadThought: quote.BestEffort(ctx, g.quotes, g.quoteTimeout)}, nil
}
