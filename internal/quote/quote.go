// Package quote supplies the short "uplift head thought" returned with every
// accepted submission.
package quote

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/Lemmmy/SCHardwareSurvey/internal/config"
)

// Fallback is returned when a provider fails or does not answer in time.
const Fallback = "Keep it logically awesome."

// Provider returns a quote.
type Provider interface {
	Quote(ctx context.Context) (string, error)
}

// New returns the provider selected by cfg.
func New(cfg config.QuoteConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "builtin":
		return Builtin{}, nil
	case "http":
		return NewHTTPProvider(&http.Client{Timeout: cfg.Timeout()}, cfg.URL, cfg.JSONPath)
	default:
		return nil, fmt.Errorf("unknown quote provider %q", cfg.Provider)
	}
}

var zen = []string{
	"Responsive is better than fast.",
	"It's not fully shipped until it's fast.",
	"Anything added dilutes everything else.",
	"Practicality beats purity.",
	"Approachable is better than simple.",
	"Mind your words, they are important.",
	"Speak like a human.",
	"Half measures are as bad as nothing at all.",
	"Encourage flow.",
	"Non-blocking is better than blocking.",
	"Favor focus over features.",
	"Avoid administrative distraction.",
	"Design for failure.",
	Fallback,
}

// Builtin picks a random line from a fixed list of zen quotes.
type Builtin struct{}

func (Builtin) Quote(context.Context) (string, error) {
	return zen[rand.IntN(len(zen))], nil
}

// BestEffort asks p for a quote but gives up after timeout. It always returns
// a usable quote and never blocks longer than timeout.
func BestEffort(ctx context.Context, p Provider, timeout time.Duration) string {
	if p == nil {
		return Fallback
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan string, 1)
	go func() {
		q := Fallback
		defer func() {
			_ = recover()
			ch <- q
		}()
		if s, err := p.Quote(ctx); err == nil && strings.TrimSpace(s) != "" {
			q = strings.TrimSpace(s)
		}
	}()

	select {
	case q := <-ch:
		return q
	case <-ctx.Done():
		return Fallback
	}
}
