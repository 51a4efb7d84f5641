package waitlist

import (
	"strings"

	"github.com/akeren/signal-waitlist/internal/models"
	"github.com/akeren/signal-waitlist/pkg/constants"
	"github.com/akeren/signal-waitlist/pkg/schema"
)

// JoinWaitlistRequest is the body of POST /api/waitlist. The intake form posts the same struct.
type JoinWaitlistRequest = schema.WaitlistSubmission

type JoinWaitlistResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ListWaitlistResponse struct {
	Message string                  `json:"message"`
	Count   int                     `json:"count"`
	Entries []WaitlistEntryResponse `json:"entries"`
}

type WaitlistEntryResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	City              string `json:"city"`
	UniversityCompany string `json:"universityCompany,omitempty"`
	Platform          string `json:"platform"`
	IP                string `json:"ip,omitempty"`
	CreatedAt         string `json:"createdAt"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(req *JoinWaitlistRequest, origin string) *models.WaitlistEntry {
	if req == nil {
		return nil
	}
	if strings.TrimSpace(origin) == "" {
		origin = constants.UnknownClientOrigin
	}
	return &models.WaitlistEntry{
		Name:              req.Name,
		Email:             schema.NormalizeEmail(req.Email),
		City:              req.City,
		UniversityCompany: req.UniversityCompany,
		Platform:          req.Platform,
		IP:                origin,
	}
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:                entry.ID,
		Name:              entry.Name,
		Email:             entry.Email,
		City:              entry.City,
		UniversityCompany: entry.UniversityCompany,
		Platform:          entry.Platform,
		IP:                entry.IP,
		CreatedAt:         entry.CreatedAt.UTC().Format(constants.ISO8601MillisFormat),
	}
}
