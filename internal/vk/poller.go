// Long-poll fetch loop.
package vk

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/quizhub/go-trivia-bot/internal/game"
)

var (
	pollBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vk_poll_batches_total",
		Help: "Total long-poll batches fetched, including empty ones.",
	})
	pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vk_poll_errors_total",
		Help: "Total long-poll transport or session failures.",
	})
)

func init() {
	prometheus.MustRegister(pollBatches, pollErrors)
}

// Handler receives one batch of inbound events in arrival order. The poller
// waits for it to return before fetching the next batch, so the resumption
// token only advances past events that have been handed off.
type Handler func(ctx context.Context, events []game.Event)

// Poller drives the Bots Long Poll cycle: fetch a batch, hand it to the
// handler, advance the resumption token, repeat. Transport failures retry
// with exponential backoff and never reach game state; session expiry
// transparently re-keys.
type Poller struct {
	Client  *Client
	Handler Handler
	// Wait is the server-side hold time in seconds for each fetch.
	Wait int

	log zerolog.Logger
}

// NewPoller constructs a Poller with the standard 25s hold.
func NewPoller(c *Client, h Handler, log zerolog.Logger) *Poller {
	return &Poller{
		Client:  c,
		Handler: h,
		Wait:    25,
		log:     log.With().Str("component", "poller").Logger(),
	}
}

const (
	backoffMin = time.Second
	backoffMax = 30 * time.Second
)

// Run polls until the context is cancelled. It returns the context error on
// shutdown; every other failure is retried internally.
func (p *Poller) Run(ctx context.Context) error {
	session, err := p.session(ctx)
	if err != nil {
		return err
	}
	p.log.Info().Str("server", session.Server).Msg("long poll started")

	backoff := backoffMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := p.Client.poll(ctx, session, p.Wait)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			pollErrors.Inc()
			p.log.Warn().Err(err).Dur("backoff", backoff).Msg("poll failed, retrying")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff *= 2; backoff > backoffMax {
				backoff = backoffMax
			}
			continue
		}
		backoff = backoffMin

		// Session maintenance codes: 1 = history dropped, keep going from
		// the returned ts; 2/3 = key or session expired, re-key.
		if resp.Failed > 1 {
			pollErrors.Inc()
			p.log.Info().Int("failed", resp.Failed).Msg("long poll session expired, re-keying")
			if session, err = p.session(ctx); err != nil {
				return err
			}
			continue
		}
		session.TS = resp.TS

		pollBatches.Inc()
		if events := toEvents(resp.Updates); len(events) > 0 {
			p.Handler(ctx, events)
		}
	}
}

// session obtains a long-poll session, retrying with backoff until it
// succeeds or the context ends.
func (p *Poller) session(ctx context.Context) (*LongPollSession, error) {
	backoff := backoffMin
	for {
		s, err := p.Client.LongPollServer(ctx)
		if err == nil {
			return s, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pollErrors.Inc()
		p.log.Warn().Err(err).Dur("backoff", backoff).Msg("getLongPollServer failed, retrying")
		if !sleep(ctx, backoff) {
			return nil, ctx.Err()
		}
		if backoff *= 2; backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
