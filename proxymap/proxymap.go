// Package proxymap routes outbound connections through proxies keyed by
// scheme class. A map like {"all://": A, "wss://": B} sends WebSocket
// traffic through B and everything else through A.
package proxymap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	xproxy "golang.org/x/net/proxy"
)

// Scheme classes accepted as map keys.
const (
	ClassAll    = "all://"
	ClassHTTP   = "http://"
	ClassHTTPS  = "https://"
	ClassWSS    = "wss://"
	ClassSOCKS5 = "socks5://"
)

var validClasses = map[string]struct{}{
	ClassAll:    {},
	ClassHTTP:   {},
	ClassHTTPS:  {},
	ClassWSS:    {},
	ClassSOCKS5: {},
}

// Map is a scheme-class-keyed table of proxy endpoints.
type Map map[string]*url.URL

// Parse builds a Map from raw class → endpoint URL strings.
func Parse(raw map[string]string) (Map, error) {
	m := make(Map, len(raw))
	for class, endpoint := range raw {
		class = normalizeClass(class)
		if _, ok := validClasses[class]; !ok {
			return nil, fmt.Errorf("unknown proxy scheme class %q", class)
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url for %s: %w", class, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy url for %s must be absolute, got %q", class, endpoint)
		}
		m[class] = u
	}
	return m, nil
}

// FromURL builds a single-entry Map routing all traffic through one proxy.
func FromURL(endpoint string) (Map, error) {
	return Parse(map[string]string{ClassAll: endpoint})
}

// normalizeClass accepts both "wss" and "wss://" spellings.
func normalizeClass(class string) string {
	if !strings.HasSuffix(class, "://") {
		return class + "://"
	}
	return class
}

// Select returns the proxy for a target scheme, preferring the exact scheme
// class and falling back to all://. The second return is false when no entry
// matches.
func (m Map) Select(targetScheme string) (*url.URL, bool) {
	if m == nil {
		return nil, false
	}
	if u, ok := m[normalizeClass(targetScheme)]; ok && u != nil {
		return u, true
	}
	if u, ok := m[ClassAll]; ok && u != nil {
		return u, true
	}
	return nil, false
}

// HTTPTransport builds an http.Transport that routes requests per the map.
// CONNECT-style endpoints are applied per request scheme; a socks5 endpoint
// selected for http or https traffic installs a SOCKS5 dialer instead. The
// dialer is transport-wide, so a map that routes one request scheme through
// socks5 and another through a CONNECT proxy cannot be represented by a
// single transport and is rejected.
func (m Map) HTTPTransport() (*http.Transport, error) {
	var socksEndpoint, connectEndpoint *url.URL
	for _, scheme := range []string{"https", "http"} {
		endpoint, ok := m.Select(scheme)
		if !ok {
			continue
		}
		if endpoint.Scheme == "socks5" || endpoint.Scheme == "socks5h" {
			socksEndpoint = endpoint
		} else {
			connectEndpoint = endpoint
		}
	}
	if socksEndpoint != nil && connectEndpoint != nil {
		return nil, fmt.Errorf("proxy map mixes socks5 (%s) and %s proxies for http traffic",
			socksEndpoint.Host, connectEndpoint.Scheme)
	}

	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			endpoint, ok := m.Select(req.URL.Scheme)
			if !ok || endpoint.Scheme == "socks5" || endpoint.Scheme == "socks5h" {
				return nil, nil
			}
			return endpoint, nil
		},
	}

	if socksEndpoint != nil {
		var auth *xproxy.Auth
		if user := socksEndpoint.User; user != nil {
			password, _ := user.Password()
			auth = &xproxy.Auth{User: user.Username(), Password: password}
		}
		socks, err := xproxy.SOCKS5("tcp", socksEndpoint.Host, auth, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("build socks5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socks.(xproxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socks.Dial(network, addr)
		}
	}

	return transport, nil
}

// Apply configures a websocket dialer to reach targetURL through the
// selected proxy. HTTP and HTTPS proxy endpoints use CONNECT tunneling;
// socks5 endpoints dial through a SOCKS5 client.
func (m Map) Apply(dialer *websocket.Dialer, targetURL string) error {
	target, err := url.Parse(targetURL)
	if err != nil {
		return fmt.Errorf("parse target url: %w", err)
	}
	scheme := target.Scheme
	if scheme == "ws" {
		// Plaintext sockets share the wss:// class.
		scheme = "wss"
	}
	endpoint, ok := m.Select(scheme)
	if !ok {
		return nil
	}

	switch endpoint.Scheme {
	case "http", "https":
		dialer.Proxy = http.ProxyURL(endpoint)
		return nil
	case "socks5", "socks5h":
		var auth *xproxy.Auth
		if user := endpoint.User; user != nil {
			password, _ := user.Password()
			auth = &xproxy.Auth{User: user.Username(), Password: password}
		}
		socks, err := xproxy.SOCKS5("tcp", endpoint.Host, auth, xproxy.Direct)
		if err != nil {
			return fmt.Errorf("build socks5 dialer: %w", err)
		}
		dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socks.(xproxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socks.Dial(network, addr)
		}
		return nil
	default:
		return fmt.Errorf("unsupported proxy scheme %q", endpoint.Scheme)
	}
}
