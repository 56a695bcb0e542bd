package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/vidproxy/internal/analytics"
	"github.com/serroba/vidproxy/internal/messaging"
	"github.com/serroba/vidproxy/internal/proxy"
	"github.com/serroba/vidproxy/internal/token"
	"go.uber.org/zap"
)

const videoPath = "/video"

// VideoHandler streams origin videos behind tokens and allow-listed links.
type VideoHandler struct {
	tokens            *token.Registry
	proxy             *proxy.Client
	publishLinkAccess messaging.Publish[analytics.LinkAccessedEvent]
	logger            *zap.Logger
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(
	tokens *token.Registry,
	client *proxy.Client,
	publishLinkAccess messaging.Publish[analytics.LinkAccessedEvent],
	logger *zap.Logger,
) *VideoHandler {
	return &VideoHandler{
		tokens:            tokens,
		proxy:             client,
		publishLinkAccess: publishLinkAccess,
		logger:            logger,
	}
}

// Stream resolves the credential and relays the origin response. The origin is
// contacted before the response starts so failures still map to a status code.
func (h *VideoHandler) Stream(ctx context.Context, req *VideoRequest) (*huma.StreamResponse, error) {
	kind, id, origin, err := h.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	stream, err := h.proxy.Open(ctx, origin, req.Range)
	if err != nil {
		return nil, statusError(h.logger, "failed to open stream", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkAccessedEvent{
		Kind:       kind,
		ID:         id,
		AccessedAt: time.Now(),
		Status:     stream.Status(),
		Range:      req.Range,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publishLinkAccess(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			defer stream.Close()

			for name, values := range stream.Header() {
				for _, v := range values {
					hctx.AppendHeader(name, v)
				}
			}

			hctx.SetStatus(stream.Status())

			// Errors here are almost always the client going away mid-stream.
			if n, err := stream.WriteTo(hctx.BodyWriter()); err != nil {
				h.logger.Debug("stream interrupted",
					zap.String("kind", string(kind)),
					zap.Int64("bytes", n),
					zap.Error(err),
				)
			}
		},
	}, nil
}

// resolve validates the request and returns the origin URL to stream.
// A token takes precedence over src.
func (h *VideoHandler) resolve(ctx context.Context, req *VideoRequest) (analytics.LinkKind, string, string, error) {
	switch {
	case req.Token != "":
		origin, err := h.tokens.Resolve(ctx, req.Token)
		if err != nil {
			return "", "", "", statusError(h.logger, "failed to resolve token", err)
		}

		return analytics.KindToken, req.Token, origin, nil
	case req.Src != "":
		if err := h.tokens.Allowed(ctx, req.Src); err != nil {
			return "", "", "", statusError(h.logger, "failed to check link", err)
		}

		return analytics.KindDirect, req.Src, req.Src, nil
	default:
		return "", "", "", errMissingCred
	}
}

// Preflight answers CORS preflight requests.
func (h *VideoHandler) Preflight(_ context.Context, _ *struct{}) (*PreflightResponse, error) {
	cors := proxy.CORSHeader()

	return &PreflightResponse{
		AllowOrigin:  cors.Get("Access-Control-Allow-Origin"),
		AllowMethods: cors.Get("Access-Control-Allow-Methods"),
		AllowHeaders: cors.Get("Access-Control-Allow-Headers"),
	}, nil
}
