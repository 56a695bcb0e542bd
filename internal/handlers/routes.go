package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/vidproxy/internal/shortlink"
)

// Handlers groups the operation handlers served by the API.
type Handlers struct {
	Tokens *TokenHandler
	Links  *ShortLinkHandler
	Video  *VideoHandler
}

// RegisterRoutes registers the control page, link generation, short link and
// video streaming routes.
func RegisterRoutes(api huma.API, h Handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "index",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Control page",
		Tags:        []string{"Page"},
		Hidden:      true,
	}, Index)

	generateToken := huma.Operation{
		OperationID: "generate-token",
		Method:      http.MethodGet,
		Path:        "/generateToken",
		Summary:     "Issue video token",
		Description: "Maps a new opaque token to an HTTPS video URL and returns the token as plain text.",
		Tags:        []string{"Links"},
	}
	huma.Register(api, generateToken, h.Tokens.GenerateToken)

	// Older clients call /generate.
	generateToken.OperationID = "generate-token-legacy"
	generateToken.Path = "/generate"
	generateToken.Deprecated = true
	huma.Register(api, generateToken, h.Tokens.GenerateToken)

	huma.Register(api, huma.Operation{
		OperationID: "generate-link",
		Method:      http.MethodGet,
		Path:        "/generateLink",
		Summary:     "Allow-list video URL",
		Description: "Registers an HTTPS video URL for direct proxying and returns its /video?src= path.",
		Tags:        []string{"Links"},
	}, h.Tokens.GenerateLink)

	huma.Register(api, huma.Operation{
		OperationID: "stream-video",
		Method:      http.MethodGet,
		Path:        videoPath,
		Summary:     "Stream video",
		Description: "Streams the origin video behind a token or allow-listed src, relaying byte ranges.",
		Tags:        []string{"Video"},
	}, h.Video.Stream)

	huma.Register(api, huma.Operation{
		OperationID:   "stream-video-preflight",
		Method:        http.MethodOptions,
		Path:          videoPath,
		Summary:       "CORS preflight for video",
		Tags:          []string{"Video"},
		DefaultStatus: http.StatusNoContent,
	}, h.Video.Preflight)

	huma.Register(api, huma.Operation{
		OperationID: "shorten",
		Method:      http.MethodGet,
		Path:        "/short",
		Summary:     "Create short link",
		Description: "Stores any target under a short hash and returns the absolute short URL as plain text.",
		Tags:        []string{"Short links"},
	}, h.Links.Shorten)

	huma.Register(api, huma.Operation{
		OperationID:   "follow-short-link",
		Method:        http.MethodGet,
		Path:          shortlink.PathPrefix + "{hash}",
		Summary:       "Follow short link",
		Tags:          []string{"Short links"},
		DefaultStatus: http.StatusFound,
	}, h.Links.Redirect)

	huma.Register(api, huma.Operation{
		OperationID: "short-link-missing-hash",
		Method:      http.MethodGet,
		Path:        shortlink.PathPrefix,
		Summary:     "Short link without hash",
		Tags:        []string{"Short links"},
		Hidden:      true,
	}, h.Links.MissingHash)
}
