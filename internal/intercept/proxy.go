package intercept

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"subgrab/internal/logging"
)

// NewReverseProxy fronts upstream with transport. Requests keep their path
// and query; the Host header is rewritten to the upstream host.
func NewReverseProxy(upstream *url.URL, transport http.RoundTripper, logger *slog.Logger) *httputil.ReverseProxy {
	logger = logging.NewComponentLogger(logger, "proxy")
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorLog:  slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			logging.WarnWithContext(logger, "upstream request failed", "proxy_upstream_error",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check proxy.upstream and network connectivity"),
				logging.String(logging.FieldImpact, "client request failed with 502"),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}
