// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the Hara service.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Token bucket sizing per client IP.
  - Slideshow Timing: Indicator and replication deadlines.
  - Storage Keys: Local store keys shared with the kiosk's original layout.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "hara"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 15 * time.Second

	// StartupTimeout bounds local store opening and the initial slideshow load.
	StartupTimeout = 20 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Slideshow Timing

const (
	// IndicatorHideDelay is how long the slide indicator stays visible
	// after the last manual navigation.
	IndicatorHideDelay = 1000 * time.Millisecond

	// RemoteWriteTimeout bounds a single background replication to the remote store.
	RemoteWriteTimeout = 10 * time.Second

	// RemoteLoadTimeout bounds the initial remote read before falling back to local.
	RemoteLoadTimeout = 5 * time.Second
)

// # Uploads

const (
	// MaxUploadBytes caps a single image upload.
	MaxUploadBytes = 20 << 20

	// MaxImagePixels caps the declared width*height of a picture before it is decoded.
	MaxImagePixels = 50_000_000
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Local Store Keys

const (
	KeySettings      = "hara_settings"
	KeyImageSlides   = "hara_image_slides"
	KeyStatusImage   = "hara_status_image"
	KeyMapBackground = "hara_map_background"
)
