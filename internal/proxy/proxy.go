package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultContentType is sent when the origin does not declare one.
const DefaultContentType = "video/mp4"

// DefaultHeaderTimeout bounds how long the origin may take to start responding.
const DefaultHeaderTimeout = 30 * time.Second

var errInsecureRedirect = errors.New("origin redirected to a non-https location")

// UpstreamError reports a failed origin fetch: a transport failure (Status == 0)
// or an error status the proxy does not relay.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream responded with status %d", e.Status)
	}

	return fmt.Sprintf("upstream fetch failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewHTTPClient returns an HTTP client for origin fetches. Only the wait for response
// headers is bounded; bodies may stream for as long as the client keeps reading.
func NewHTTPClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout

	return &http.Client{
		Transport:     transport,
		CheckRedirect: httpsOnlyRedirects,
	}
}

func httpsOnlyRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}

	if req.URL.Scheme != "https" {
		return errInsecureRedirect
	}

	return nil
}

// Client opens upstream video streams.
type Client struct {
	http *http.Client
}

// NewClient creates a proxy client using httpClient for origin requests.
func NewClient(httpClient *http.Client) *Client {
	return &Client{http: httpClient}
}

// Open issues a GET for origin. rangeHeader is forwarded verbatim when non-empty and
// never synthesized otherwise. ctx should be the inbound request context so a client
// disconnect cancels the origin fetch.
//
// On success the caller owns the returned Stream and must Close it.
func (c *Client) Open(ctx context.Context, origin, rangeHeader string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	// Without this the transport asks for gzip and transparently decompresses,
	// which drops Content-Length and breaks byte offsets.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if !relayable(resp.StatusCode) {
		_ = resp.Body.Close()

		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	return &Stream{resp: resp}, nil
}

// relayable reports whether an origin status is passed through to the client.
// 416 is kept so players see the origin's Content-Range for an unsatisfiable range.
func relayable(status int) bool {
	return status < http.StatusBadRequest || status == http.StatusRequestedRangeNotSatisfiable
}

// Stream is an open origin response.
type Stream struct {
	resp *http.Response
}

// Status returns the origin status code.
func (s *Stream) Status() int {
	return s.resp.StatusCode
}

// Header returns the headers to send to the client. Only Content-Type, Content-Length
// and Content-Range are taken from the origin; everything else is fixed so the origin
// cannot override the proxy's caching and CORS policy.
func (s *Stream) Header() http.Header {
	h := CORSHeader()

	contentType := s.resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	h.Set("Content-Type", contentType)

	if v := s.resp.Header.Get("Content-Length"); v != "" {
		h.Set("Content-Length", v)
	}

	if v := s.resp.Header.Get("Content-Range"); v != "" {
		h.Set("Content-Range", v)
	}

	h.Set("Cache-Control", "no-store")
	h.Set("Accept-Ranges", "bytes")

	return h
}

// WriteTo copies the origin body to w without buffering it.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	return io.Copy(w, s.resp.Body)
}

// Close releases the origin connection.
func (s *Stream) Close() error {
	return s.resp.Body.Close()
}

// CORSHeader returns the CORS headers the proxy sends on every video response.
func CORSHeader() http.Header {
	h := make(http.Header, 3)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range")

	return h
}
