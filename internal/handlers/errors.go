package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/vidproxy/internal/proxy"
	"github.com/serroba/vidproxy/internal/shortlink"
	"github.com/serroba/vidproxy/internal/token"
	"go.uber.org/zap"
)

var (
	errMissingSrc   = huma.Error400BadRequest("missing src")
	errMissingURL   = huma.Error400BadRequest("missing url")
	errMissingCred  = huma.Error400BadRequest("missing token or src")
	errInvalidPath  = huma.Error400BadRequest("invalid short link path")
	errInvalidSrc   = huma.Error400BadRequest("invalid src: must start with " + token.SchemePrefix)
	errForbidden    = huma.Error403Forbidden("forbidden")
	errShortMissing = huma.Error404NotFound("short link not found")
)

// statusError maps a domain error to the huma error sent to the client. Unknown
// errors are logged and reported as a generic 500.
func statusError(logger *zap.Logger, msg string, err error) error {
	var upstreamErr *proxy.UpstreamError

	switch {
	case errors.Is(err, token.ErrInvalidURL):
		return errInvalidSrc
	case errors.Is(err, token.ErrForbidden):
		return errForbidden
	case errors.Is(err, shortlink.ErrEmptyTarget):
		return errMissingURL
	case errors.Is(err, shortlink.ErrNotFound):
		return errShortMissing
	case errors.As(err, &upstreamErr):
		logger.Warn("upstream fetch failed", zap.Int("status", upstreamErr.Status), zap.Error(err))

		return huma.Error502BadGateway("upstream error")
	default:
		logger.Error(msg, zap.Error(err))

		return huma.Error500InternalServerError(msg)
	}
}
