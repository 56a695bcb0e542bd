package handlers

import (
	"context"
	_ "embed"
)

//go:embed web/index.html
var indexHTML []byte

// Index serves the HTML control page.
func Index(_ context.Context, _ *struct{}) (*PageResponse, error) {
	return &PageResponse{ContentType: contentTypeHTML, Body: indexHTML}, nil
}
