package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/dkovalev/gemini-relay/pkg/domain"
	"github.com/dkovalev/gemini-relay/pkg/logger"
)

// Generator performs exactly one network round trip against the
// generative-language service using a single credential.
type Generator interface {
	GenerateReply(ctx context.Context, credential string, req domain.ChatRequest) (string, error)
}

// Dispatcher delivers one outbound message, rotating through the credential
// pool in order when an attempt fails with a credential- or quota-level error.
type Dispatcher struct {
	generator Generator
}

func NewDispatcher(generator Generator) *Dispatcher {
	return &Dispatcher{generator: generator}
}

// Dispatch sends the message plus images against the service and returns the
// generated reply. Attempts run strictly one at a time; credential order is
// preserved. A reply that trims to empty fails the whole call without
// rotation.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	message string,
	images []domain.Attachment,
	history []domain.ChatTurn,
	cfg domain.DispatchConfig,
) (string, error) {
	if strings.TrimSpace(message) == "" && len(images) == 0 {
		return "", domain.ErrEmptyMessage
	}

	req := domain.ChatRequest{
		SystemInstruction: cfg.SystemInstruction,
		History:           history,
		Message:           message,
		Images:            images,
	}

	var attemptErrs error
	for i, credential := range cfg.Credentials {
		reply, err := d.generator.GenerateReply(ctx, credential, req)
		if err == nil {
			reply = strings.TrimSpace(reply)
			if reply == "" {
				return "", domain.ErrEmptyResponse
			}
			return reply, nil
		}

		if !isRetryable(err.Error()) {
			return "", fmt.Errorf("AI connection error: %w", err)
		}

		slog.WarnContext(ctx, "Credential rejected, rotating to next",
			"attempt", i, "remaining", len(cfg.Credentials)-i-1, logger.Err(err))
		attemptErrs = multierror.Append(attemptErrs, fmt.Errorf("attempt %d: %w", i, err))
	}

	if attemptErrs != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCredentialsExhausted, attemptErrs)
	}

	// Empty credential pool: exhausted before the first attempt.
	return "", domain.ErrCredentialsExhausted
}
