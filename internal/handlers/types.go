package handlers

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// SourceRequest carries the origin URL for token and link generation.
type SourceRequest struct {
	Src string `doc:"HTTPS URL of the video" example:"https://example.com/a.mp4" query:"src"`
}

// ShortenRequest is the request for creating a short link.
type ShortenRequest struct {
	URL string `doc:"Target to shorten, typically a proxy link" example:"https://host/video?token=abc" query:"url"`
}

// TextResponse is a plain text response body.
type TextResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func textResponse(s string) *TextResponse {
	return &TextResponse{ContentType: contentTypeText, Body: []byte(s)}
}

// PageResponse is the HTML control page.
type PageResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	Hash string `doc:"The short link hash" example:"abc12345" path:"hash"`
}

// RedirectResponse redirects the client to a short link target.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The short link target" header:"Location"`
}

// VideoRequest is the request for streaming a video.
type VideoRequest struct {
	Token string `doc:"Token issued by /generateToken"          query:"token"`
	Src   string `doc:"Allow-listed origin URL (direct link mode)" query:"src"`
	Range string `doc:"Byte range, forwarded to the origin verbatim" header:"Range"`
}

// PreflightResponse answers CORS preflight requests for /video.
type PreflightResponse struct {
	AllowOrigin  string `header:"Access-Control-Allow-Origin"`
	AllowMethods string `header:"Access-Control-Allow-Methods"`
	AllowHeaders string `header:"Access-Control-Allow-Headers"`
}
