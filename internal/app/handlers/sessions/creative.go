package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"elaview/internal/app/commands"
	"elaview/internal/app/policies"
	"elaview/internal/domain/session"
)

const attachCreativeKey = "sessions.creative.attach"

var (
	ErrCreativeStoreMissing = errors.New("sessions: creative storage unavailable")
	ErrCreativeRequired     = errors.New("sessions: creative file is required")
)

type AttachCreativeCommand struct {
	advertiserOnly
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
	Filename     string
	ContentType  string
	Reader       io.Reader
}

func (c AttachCreativeCommand) Key() string { return attachCreativeKey }

type AttachCreativeResult struct {
	SessionID   string `json:"session_id"`
	CreativeURL string `json:"creative_url"`
}

type AttachCreativeHandler struct {
	Base
	Store policies.CreativeStore
}

func (h *AttachCreativeHandler) Handle(ctx context.Context, cmd AttachCreativeCommand) (*AttachCreativeResult, error) {
	if h.Store == nil {
		return nil, ErrCreativeStoreMissing
	}
	if cmd.Reader == nil {
		return nil, ErrCreativeRequired
	}
	s, err := h.load(ctx, cmd.SessionID, cmd.AdvertiserID)
	if err != nil {
		return nil, err
	}

	key := objectKey(s, cmd.Filename)
	url, err := h.Store.Upload(ctx, key, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload creative: %w", err)
	}
	if _, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		s.CreativeURL = url
		return nil
	}); err != nil {
		return nil, err
	}
	return &AttachCreativeResult{SessionID: string(s.ID), CreativeURL: url}, nil
}

func objectKey(s *session.Session, filename string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	return fmt.Sprintf("creatives/%s/%s/%s%s", s.SpaceID, s.ID, uuid.NewString(), ext)
}

var _ commands.Handler[AttachCreativeCommand, *AttachCreativeResult] = (*AttachCreativeHandler)(nil)
