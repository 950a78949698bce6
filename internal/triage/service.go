package triage

import (
	"context"
	"io"
	"log/slog"
)

// Service triages maintenance requests: remote AI classification when
// configured, deterministic keyword fallback otherwise. Triage never fails;
// that keeps the intake flow available when the AI service is down.
type Service struct {
	remote *RemoteClassifier
	logger *slog.Logger
}

// NewService creates a triage service. remote may be nil.
func NewService(remote *RemoteClassifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{remote: remote, logger: logger}
}

// Triage classifies the issue text, preferring the remote classifier.
func (s *Service) Triage(ctx context.Context, title, details string) Result {
	if s.remote.Configured() {
		result, err := s.remote.Classify(ctx, title, details)
		if err == nil {
			return result
		}
		s.logger.Warn("remote classification failed, using keyword fallback", "error", err)
	}
	return Classify(title, details)
}
