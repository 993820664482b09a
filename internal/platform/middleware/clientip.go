// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/ctxutil"
)

// # Client Address

// ClientIP resolves the address every limiter and log line keys on, and
// stores it in the request context.
//
// # Trust Model
//
// Proxy headers are only honoured when the TCP peer falls inside one of the
// trusted prefixes. Otherwise the peer address is used as is, so a client
// cannot pick its own rate-limit key by sending X-Forwarded-For.
//
// Behind a trusted proxy, X-Real-IP wins; failing that, X-Forwarded-For is
// walked from the right and the first hop outside the trusted set is taken.
func ClientIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ip := resolveClientIP(request, trusted)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClientIP(request.Context(), ip)))
		})
	}
}

// RealIP returns the client address resolved by [ClientIP].
//
// Outside that middleware it falls back to the connection's own address and
// never reads proxy headers.
func RealIP(request *http.Request) string {
	if ip := ctxutil.GetClientIP(request.Context()); ip != "" {
		return ip
	}
	return peerAddress(request)
}

func resolveClientIP(request *http.Request, trusted []netip.Prefix) string {
	peer := peerAddress(request)
	if !isTrusted(peer, trusted) {
		return peer
	}

	if ip := strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP)); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}

	return peer
}

// peerAddress is the host part of the connection's remote address.
func peerAddress(request *http.Request) string {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
