package intercept

import (
	"bytes"
	"fmt"
	"log/slog"

	"subgrab/internal/jsontree"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
	"subgrab/internal/metrics"
)

// KnownProfiles are playback profile identifiers that mark an array as the
// profile list of a manifest request.
var KnownProfiles = []string{
	"heaac-2-dash",
	"heaac-2hq-dash",
	"playready-h264mpl30-dash",
	"playready-h264mpl31-dash",
	"playready-h264hpl30-dash",
	"playready-h264hpl31-dash",
	"vp9-profile0-L30-dash-cenc",
	"vp9-profile0-L31-dash-cenc",
	"dfxp-ls-sdh",
	"simplesdh",
	"nflx-cmisc",
	"BIF240",
	"BIF320",
}

const profilesKey = "profiles"

// Sink receives the tracks observed for an item. It is called once per
// matched record, including records whose track list is empty.
type Sink interface {
	PublishTracks(itemID string, tracks []manifest.Track)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(itemID string, tracks []manifest.Track)

func (f SinkFunc) PublishTracks(itemID string, tracks []manifest.Track) { f(itemID, tracks) }

// Options configures an Interceptor.
type Options struct {
	// Format is the delivery format injected and extracted. Defaults to
	// manifest.DeliveryFormat.
	Format  string
	Sink    Sink
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Interceptor rewrites outgoing manifest requests and observes incoming
// responses. It holds no per-request state and is safe for concurrent use.
type Interceptor struct {
	format  string
	known   map[string]struct{}
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds an Interceptor from opts.
func New(opts Options) *Interceptor {
	format := opts.Format
	if format == "" {
		format = manifest.DeliveryFormat
	}
	known := make(map[string]struct{}, len(KnownProfiles))
	for _, id := range KnownProfiles {
		known[id] = struct{}{}
	}
	return &Interceptor{
		format:  format,
		known:   known,
		sink:    opts.Sink,
		logger:  logging.NewComponentLogger(opts.Logger, "intercept"),
		metrics: opts.Metrics,
	}
}

// Format returns the delivery format this interceptor injects.
func (i *Interceptor) Format() string {
	return i.format
}

// Inject prepends the delivery format to the first profile list found in v,
// searching depth-first in member order. It reports whether v was modified.
func (i *Interceptor) Inject(v *jsontree.Value) bool {
	target := i.findProfiles(v)
	if target == nil || target.ContainsString(i.format) {
		return false
	}
	return target.Prepend(jsontree.NewString(i.format))
}

func (i *Interceptor) findProfiles(node *jsontree.Value) *jsontree.Value {
	switch node.Kind() {
	case jsontree.Object:
		for _, m := range node.Members() {
			if found := i.inspectChild(m.Key, m.Value); found != nil {
				return found
			}
		}
	case jsontree.Array:
		for _, item := range node.Items() {
			if found := i.inspectChild("", item); found != nil {
				return found
			}
		}
	}
	return nil
}

func (i *Interceptor) inspectChild(key string, child *jsontree.Value) *jsontree.Value {
	if child.IsArray() && (key == profilesKey || i.containsKnownProfile(child)) {
		return child
	}
	if child.IsObject() || child.IsArray() {
		return i.findProfiles(child)
	}
	return nil
}

func (i *Interceptor) containsKnownProfile(arr *jsontree.Value) bool {
	for _, item := range arr.Items() {
		if s, ok := item.Str(); ok {
			if _, known := i.known[s]; known {
				return true
			}
		}
	}
	return false
}

// Observe hands every subtitle-bearing record in v to the sink and returns
// the number of records matched.
func (i *Interceptor) Observe(v *jsontree.Value) int {
	records := manifest.Match(v)
	for _, rec := range records {
		tracks := manifest.ExtractTracks(rec, i.format)
		i.metrics.RecordMatched(rec.Shape.String(), len(tracks))
		i.logger.Info("subtitle tracks observed",
			logging.String(logging.FieldEventType, "tracks_observed"),
			logging.String(logging.FieldItemID, rec.ItemID),
			logging.String("shape", rec.Shape.String()),
			logging.Int("track_count", len(tracks)),
		)
		if i.sink != nil {
			i.sink.PublishTracks(rec.ItemID, tracks)
		}
	}
	return len(records)
}

// RewriteRequest injects the delivery format into a JSON request body. The
// original bytes are returned unchanged when the body is not JSON, has no
// profile list, or already carries the format.
func (i *Interceptor) RewriteRequest(body []byte) (out []byte, changed bool) {
	out = body
	payload, ok := jsonPayload(body)
	if !ok {
		return body, false
	}
	i.guard("request", func() error {
		doc, err := jsontree.Parse(payload)
		if err != nil {
			return nil
		}
		if !i.Inject(doc) {
			return nil
		}
		encoded, err := doc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode rewritten body: %w", err)
		}
		out, changed = encoded, true
		return nil
	})
	if changed {
		i.metrics.RequestRewritten()
		i.logger.Debug("delivery format injected", logging.String("format", i.format))
	}
	return out, changed
}

// ObserveResponse decodes a response body per its Content-Encoding and runs
// Observe on it. The caller's bytes are never modified.
func (i *Interceptor) ObserveResponse(body []byte, contentEncoding string, limit int64) int {
	matched := 0
	i.guard("response", func() error {
		plain, err := decodeBody(body, contentEncoding, limit)
		if err != nil {
			i.metrics.BodySkipped("undecodable")
			i.logger.Debug("response body not decodable",
				logging.String("content_encoding", contentEncoding),
				logging.Error(err),
			)
			return nil
		}
		payload, ok := jsonPayload(plain)
		if !ok {
			return nil
		}
		doc, err := jsontree.Parse(payload)
		if err != nil {
			return nil
		}
		matched = i.Observe(doc)
		return nil
	})
	return matched
}

// guard runs fn, converting returned errors and panics into a logged warning
// so the surrounding traffic is never disturbed.
func (i *Interceptor) guard(hook string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			i.metrics.HookFailed(hook)
			logging.WarnWithContext(i.logger, "interception hook panicked", "intercept_hook_panic",
				logging.String("hook", hook),
				logging.Any("panic", r),
			)
		}
	}()
	if err := fn(); err != nil {
		i.metrics.HookFailed(hook)
		logging.WarnWithContext(i.logger, "interception hook failed", "intercept_hook_failed",
			logging.String("hook", hook),
			logging.Error(err),
		)
	}
}

var utf8BOM = []byte("\ufeff")

// jsonPayload returns body without a leading BOM or whitespace when it starts
// like a JSON object or array.
func jsonPayload(body []byte) ([]byte, bool) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	return trimmed, true
}
