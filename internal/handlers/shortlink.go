package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/vidproxy/internal/analytics"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/serroba/vidproxy/internal/shortlink"
	"go.uber.org/zap"
)

// ShortLinkHandler creates and follows short links.
type ShortLinkHandler struct {
	links             *shortlink.Registry
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent]
	publishLinkAccess messaging.Publish[analytics.LinkAccessedEvent]
	logger            *zap.Logger
}

// NewShortLinkHandler creates a new short link handler.
func NewShortLinkHandler(
	links *shortlink.Registry,
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent],
	publishLinkAccess messaging.Publish[analytics.LinkAccessedEvent],
	logger *zap.Logger,
) *ShortLinkHandler {
	return &ShortLinkHandler{
		links:             links,
		publishLinkCreate: publishLinkCreate,
		publishLinkAccess: publishLinkAccess,
		logger:            logger,
	}
}

// Shorten stores the target and returns the absolute short URL as plain text.
func (h *ShortLinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*TextResponse, error) {
	if req.URL == "" {
		return nil, errMissingURL
	}

	hash, err := h.links.Shorten(ctx, req.URL)
	if err != nil {
		return nil, statusError(h.logger, "failed to save short link", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Kind:      analytics.KindShort,
		ID:        string(hash),
		Target:    req.URL,
		CreatedAt: time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publishLinkCreate(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("hash", string(hash)),
			zap.Error(err),
		)
	}

	return textResponse(shortlink.URL(meta.BaseURL, hash)), nil
}

// Redirect sends the client to the target stored for the hash.
func (h *ShortLinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	if req.Hash == "" {
		return nil, errInvalidPath
	}

	target, err := h.links.Resolve(ctx, req.Hash)
	if err != nil {
		return nil, statusError(h.logger, "failed to resolve short link", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkAccessedEvent{
		Kind:       analytics.KindShort,
		ID:         req.Hash,
		AccessedAt: time.Now(),
		Status:     http.StatusFound,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publishLinkAccess(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("hash", req.Hash),
			zap.Error(err),
		)
	}

	return &RedirectResponse{Status: http.StatusFound, Location: target}, nil
}

// MissingHash rejects /s/ requests that carry no hash.
func (h *ShortLinkHandler) MissingHash(_ context.Context, _ *struct{}) (*struct{}, error) {
	return nil, errInvalidPath
}
