package amino

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/okaru/aminokit/proxymap"
	"github.com/okaru/aminokit/sign"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://service.aminoapps.com/api/v1"

const defaultUserAgent = "Apple iPhone13 iOS v16.1.2 Main/3.13.1"

// Session holds the credentials of a logged-in account.
type Session struct {
	SID      string // session token, without the "sid=" prefix
	UserID   string
	Secret   string
	DeviceID string
}

// Valid reports whether the session can authenticate requests.
func (s Session) Valid() bool {
	return s.SID != ""
}

// Client provides access to the Amino REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	deviceID  string
	userAgent string
	lang      string

	maxRetries   int
	retryBackoff time.Duration

	proxies proxymap.Map

	mu      sync.RWMutex
	session Session
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. A device ID is generated unless
// one is supplied with WithDeviceID.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger:       slog.Default(),
		userAgent:    defaultUserAgent,
		lang:         "en-US",
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.deviceID == "" {
		id, err := sign.NewDeviceID()
		if err != nil {
			return nil, fmt.Errorf("generate device id: %w", err)
		}
		c.deviceID = id
	}

	if c.proxies != nil {
		transport, err := c.proxies.HTTPTransport()
		if err != nil {
			return nil, fmt.Errorf("apply proxy map: %w", err)
		}
		c.httpClient.Transport = transport
	}

	return c, nil
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDeviceID pins the device identity instead of generating one.
func WithDeviceID(id string) ClientOption {
	return func(c *Client) {
		c.deviceID = id
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLanguage sets the NDCLANG / Accept-Language pair, e.g. "es-MX".
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.lang = lang
	}
}

// WithProxies routes outbound requests through the given proxy map. An
// unusable map surfaces as an error from NewClient.
func WithProxies(m proxymap.Map) ClientOption {
	return func(c *Client) {
		c.proxies = m
	}
}

// DeviceID returns the device identity used for signing.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// Session returns a copy of the current session state.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.session
	if s.DeviceID == "" {
		s.DeviceID = c.deviceID
	}
	return s
}

// SetSession replaces the session state, e.g. to reuse a stored sid.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.DeviceID != "" {
		c.deviceID = s.DeviceID
	}
	c.session = s
}

// clearSession drops the session after a logout.
func (c *Client) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{}
}
