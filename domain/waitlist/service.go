package waitlist

import (
	"context"

	"github.com/akeren/signal-waitlist/internal/log"
	apperrors "github.com/akeren/signal-waitlist/pkg/errors"
	"github.com/akeren/signal-waitlist/pkg/schema"
)

type WaitlistService interface {
	// JoinWaitlist validates a submission and appends it. origin is the client address, informational only.
	JoinWaitlist(ctx context.Context, req *JoinWaitlistRequest, origin string) (*JoinWaitlistResponse, error)

	// ListEntries returns the full waitlist in submission order.
	ListEntries(ctx context.Context) (*ListWaitlistResponse, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{logger: logger, repository: repository}
}

func (s *waitlistService) JoinWaitlist(ctx context.Context, req *JoinWaitlistRequest, origin string) (*JoinWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("JoinWaitlist received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	// The honeypot is checked first so a bot always gets the same answer.
	if req.Honeypot != "" {
		logger.Warn("Rejected waitlist submission with filled honeypot", "origin", origin)
		return nil, apperrors.NewValidationError(msgInvalidSubmission, ErrSuspectedBot)
	}

	if err := schema.Validate(req); err != nil {
		details := apperrors.JoinValidationErrors(apperrors.FormatValidationErrors(err, req))
		logger.Info("Rejected invalid waitlist submission", "details", details)
		return nil, apperrors.NewValidationError(details, err)
	}

	entry, err := s.repository.AppendEntry(ctx, ToWaitlistEntryModel(req, origin))
	if err != nil {
		logger.Error("Failed to save waitlist entry", "error", err)
		return nil, err
	}

	logger.Info("New waitlist entry",
		"id", entry.ID,
		"city", entry.City,
		"platform", entry.Platform,
		"created_at", entry.CreatedAt,
	)
	logger.Debug("New waitlist entry contact", "id", entry.ID, "email", entry.Email)

	return &JoinWaitlistResponse{
		Success: true,
		Message: msgJoined,
		ID:      entry.ID,
	}, nil
}

func (s *waitlistService) ListEntries(ctx context.Context) (*ListWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := s.repository.GetAllEntries(ctx)
	if err != nil {
		logger.Error("Failed to read waitlist entries", "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return &ListWaitlistResponse{
		Message: s.repository.StorageLabel(),
		Count:   len(responses),
		Entries: responses,
	}, nil
}
