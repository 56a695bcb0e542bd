package analytics

import "time"

// Topics analytics events are published to.
const (
	TopicLinkCreated  = "link.created"
	TopicLinkAccessed = "link.accessed"
)

// LinkKind identifies which kind of link an event refers to.
type LinkKind string

const (
	// KindToken is an opaque video token (/video?token=).
	KindToken LinkKind = "token"
	// KindDirect is an allow-listed origin URL (/video?src=).
	KindDirect LinkKind = "direct"
	// KindShort is a short link hash (/s/{hash}).
	KindShort LinkKind = "short"
)

// LinkCreatedEvent represents an event emitted when a token, direct link or short link is issued.
type LinkCreatedEvent struct {
	Kind      LinkKind  `json:"kind"`
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkAccessedEvent represents an event emitted when a link is followed or streamed.
type LinkAccessedEvent struct {
	Kind       LinkKind  `json:"kind"`
	ID         string    `json:"id"`
	AccessedAt time.Time `json:"accessedAt"`
	Status     int       `json:"status,omitempty"`
	Range      string    `json:"range,omitempty"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}
