package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
	"github.com/marmos91/telebox/pkg/telegram"
)

// MaxRetries is the number of attempts allowed after the first one, shared
// between network retries and the photo-to-document fallback.
const MaxRetries = 2

// Sleeper waits between network retries. Sleep must return early with
// ctx.Err() when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ContextSleeper sleeps on a timer and honors cancellation.
var ContextSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Backoff returns the delay before the retry following attempt: 1s, 2s, 4s...
func Backoff(attempt int) time.Duration {
	return time.Second << attempt
}

// Sender submits a file through one Bot API send method.
type Sender interface {
	Send(ctx context.Context, method telegram.Method, fileName string, content []byte) (*telegram.SendResult, error)
}

// RejectedError is a completed send the Bot API refused.
type RejectedError struct {
	Method      telegram.Method
	StatusCode  int
	Description string
}

func (e *RejectedError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("Telegram API error: %d", e.StatusCode)
}

// submit runs the send loop. Network failures retry the same method after
// Backoff(attempt). A rejected sendPhoto is resent once as sendDocument.
// Both consume the same MaxRetries budget and the fallback never reverts.
func (p *Pipeline) submit(ctx context.Context, method telegram.Method, name string, content []byte) (*telegram.SendResult, telegram.Method, error) {
	for attempt := 0; ; attempt++ {
		telemetry.AddEvent(ctx, "send", telemetry.Method(method.String()), telemetry.Attempt(attempt))

		res, err := p.sender.Send(ctx, method, name, content)
		if err != nil {
			p.observeAttempt(method, "network_error")
			if attempt >= MaxRetries {
				return nil, method, fmt.Errorf("Network error: %w", err)
			}
			delay := Backoff(attempt)
			logger.WarnCtx(ctx, "Network error, retrying",
				logger.Method(method.String()), logger.Attempt(attempt), logger.MaxRetries(MaxRetries), logger.Delay(delay), logger.Err(err))
			if serr := p.sleeper.Sleep(ctx, delay); serr != nil {
				return nil, method, fmt.Errorf("Network error: %w", err)
			}
			continue
		}

		if res.OK() {
			p.observeAttempt(method, "ok")
			return res, method, nil
		}
		p.observeAttempt(method, "rejected")

		if method == telegram.SendPhoto && attempt < MaxRetries {
			logger.InfoCtx(ctx, "Retrying image as document",
				logger.Status(res.StatusCode), logger.Attempt(attempt), "description", res.Description())
			method = telegram.SendDocument
			continue
		}

		return nil, method, &RejectedError{Method: method, StatusCode: res.StatusCode, Description: res.Description()}
	}
}

func (p *Pipeline) observeAttempt(method telegram.Method, outcome string) {
	if p.metrics != nil {
		p.metrics.ObserveAttempt(method.String(), outcome)
	}
}
