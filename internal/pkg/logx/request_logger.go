/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP access-log middleware. Each request gets a child logger
carrying its request id and anonymised client address, which handlers retrieve with
FromRequest. Websocket upgrades are reported as 101 once the upgrader hijacks the connection.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// anonymizeIP anonymizes the given IP address string.
// For IPv4, it zeros out the last octet; for IPv6, it keeps only the /64 network prefix.
// This preserves approximate geolocation while enhancing user privacy.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String()
	}

	if v6 := ip.To16(); v6 != nil {
		return v6.Mask(net.CIDRMask(64, 128)).String()
	}

	return ipStr
}

// levelFor picks the log level for a finished request.
// Successful health checks log at debug.
func levelFor(logger *zerolog.Logger, path string, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	case path == "/health":
		return logger.Debug()
	default:
		return logger.Info()
	}
}

// FromRequest returns the request-scoped logger installed by RequestLogger,
// or the global logger when the request did not pass through it.
func FromRequest(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Logger()
}

// RequestLogger returns an HTTP middleware that logs one line per request.
// Only the path is recorded: socket clients may carry their token in the query string.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := Logger().With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_path", r.URL.Path).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			started := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			upgraded := status == 0
			if upgraded {
				// hijacked by the websocket upgrader
				status = http.StatusSwitchingProtocols
			}

			ev := levelFor(&logger, r.URL.Path, status).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(started))

			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				ev = ev.Str("route", rctx.RoutePattern())
			}
			if upgraded {
				ev = ev.Bool("upgraded", true)
			}

			ev.Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}
