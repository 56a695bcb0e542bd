package handlers

import (
	"context"
	"net/url"
	"time"

	"github.com/serroba/vidproxy/internal/analytics"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/serroba/vidproxy/internal/token"
	"go.uber.org/zap"
)

// TokenHandler issues proxy credentials for origin URLs.
type TokenHandler struct {
	tokens            *token.Registry
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent]
	logger            *zap.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(
	tokens *token.Registry,
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent],
	logger *zap.Logger,
) *TokenHandler {
	return &TokenHandler{
		tokens:            tokens,
		publishLinkCreate: publishLinkCreate,
		logger:            logger,
	}
}

// GenerateToken issues a token for the origin URL and returns it as plain text.
func (h *TokenHandler) GenerateToken(ctx context.Context, req *SourceRequest) (*TextResponse, error) {
	if req.Src == "" {
		return nil, errMissingSrc
	}

	tok, err := h.tokens.Issue(ctx, req.Src)
	if err != nil {
		return nil, statusError(h.logger, "failed to issue token", err)
	}

	h.publishCreated(ctx, analytics.KindToken, string(tok), req.Src)

	return textResponse(string(tok)), nil
}

// GenerateLink allow-lists the origin URL and returns the direct proxy path for it.
func (h *TokenHandler) GenerateLink(ctx context.Context, req *SourceRequest) (*TextResponse, error) {
	if req.Src == "" {
		return nil, errMissingSrc
	}

	if err := h.tokens.Allow(ctx, req.Src); err != nil {
		return nil, statusError(h.logger, "failed to register link", err)
	}

	h.publishCreated(ctx, analytics.KindDirect, req.Src, req.Src)

	return textResponse(DirectLinkPath(req.Src)), nil
}

func (h *TokenHandler) publishCreated(ctx context.Context, kind analytics.LinkKind, id, target string) {
	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Kind:      kind,
		ID:        id,
		Target:    target,
		CreatedAt: time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publishLinkCreate(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// DirectLinkPath returns the proxy path that streams an allow-listed src.
func DirectLinkPath(src string) string {
	return videoPath + "?src=" + url.QueryEscape(src)
}
