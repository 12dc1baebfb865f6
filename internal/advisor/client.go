package advisor

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"autoassist/internal/config"
	"autoassist/internal/domain"
	"autoassist/internal/metrics"
	"autoassist/internal/models"
	"autoassist/internal/worker"

	"github.com/rs/zerolog"
)

const defaultTimeout = 5 * time.Second

// Client is the advisory boundary. Every call is a single request with one
// immediate retry on transient network errors; any failure comes back as
// domain.ErrAdvisoryUnavailable.
type Client struct {
	gen     Generator
	timeout time.Duration
	retry   worker.RetryPolicy
	logger  *zerolog.Logger
}

// New returns a Client. A nil generator yields a disabled client.
func New(gen Generator, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		gen:     gen,
		timeout: timeout,
		retry:   worker.RetryPolicy{MaxRetries: 1, InitialDelay: 100 * time.Millisecond, MaxDelay: 100 * time.Millisecond},
		logger:  logger,
	}
}

// NewFromConfig builds the Gemini-backed client, or a disabled one when no key is configured.
func NewFromConfig(ctx context.Context, cfg config.AdvisorConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.Disabled || cfg.APIKey == "" {
		if logger != nil {
			logger.Warn().Msg("advisor disabled: no API key configured")
		}
		return New(nil, cfg.Timeout, logger), nil
	}
	gen, err := NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return New(gen, cfg.Timeout, logger), nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.gen != nil
}

func (c *Client) RecommendServices(ctx context.Context, sc models.ServiceContext) (string, error) {
	return c.ask(ctx, KindRecommend, []models.ChatTurn{{Role: "user", Content: recommendPrompt(sc)}})
}

func (c *Client) Diagnose(ctx context.Context, req models.DiagnosisRequest) (string, error) {
	if strings.TrimSpace(req.Symptoms) == "" {
		return "", domain.Validation("symptoms are required")
	}
	return c.ask(ctx, KindDiagnose, []models.ChatTurn{{Role: "user", Content: diagnosePrompt(req)}})
}

func (c *Client) AssistStaff(ctx context.Context, task models.StaffTask) (string, error) {
	if strings.TrimSpace(task.Task) == "" {
		return "", domain.Validation("task is required")
	}
	return c.ask(ctx, KindStaff, []models.ChatTurn{{Role: "user", Content: staffPrompt(task)}})
}

func (c *Client) RestockAdvice(ctx context.Context, item *models.InventoryItem) (string, error) {
	if item == nil {
		return "", domain.Validation("item is required")
	}
	return c.ask(ctx, KindRestock, []models.ChatTurn{{Role: "user", Content: restockPrompt(item)}})
}

// Chat answers message given the trailing turns of history.
func (c *Client) Chat(ctx context.Context, history []models.ChatTurn, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.Validation("message is required")
	}

	recent := models.LastTurns(history, models.ChatHistoryTurns)
	turns := make([]models.ChatTurn, 0, len(recent)+2)
	turns = append(turns, models.ChatTurn{Role: "user", Content: systemPreamble})
	for _, turn := range recent {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		turns = append(turns, turn)
	}
	turns = append(turns, models.ChatTurn{Role: "user", Content: message})
	return c.ask(ctx, KindChat, turns)
}

func (c *Client) ask(ctx context.Context, kind string, turns []models.ChatTurn) (string, error) {
	if !c.Enabled() {
		metrics.IncAdvisory(kind, "disabled")
		return "", domain.AdvisoryUnavailable(errors.New("advisor is not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var reply string
	err := c.retry.Do(ctx, isTransient, func(ctx context.Context) error {
		var genErr error
		reply, genErr = c.gen.Generate(ctx, turns)
		return genErr
	})
	if err != nil {
		metrics.IncAdvisory(kind, "failed")
		c.logger.Warn().Err(err).Str("kind", kind).Dur("elapsed", time.Since(start)).Msg("advisory call failed")
		return "", domain.AdvisoryUnavailable(err)
	}

	metrics.IncAdvisory(kind, "ok")
	c.logger.Debug().Str("kind", kind).Dur("elapsed", time.Since(start)).Msg("advisory call completed")
	return reply, nil
}

// isTransient reports network-level failures worth one more attempt.
// Deadline and cancellation are final.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
