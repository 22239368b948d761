package logs

import (
	"context"
	"errors"
	"strings"
	"time"

	"subgrab/internal/api"
	"subgrab/internal/apiclient"
)

// ErrItemFilterRequiresAPI is returned when an item filter is requested but
// only the log file is readable.
var ErrItemFilterRequiresAPI = errors.New("item filter requires the daemon API")

const (
	defaultLines = 200
	fileWait     = time.Second
)

// EventSource is the daemon log feed.
type EventSource interface {
	Logs(ctx context.Context, q apiclient.LogQuery) (api.LogStreamResponse, error)
}

// Options controls what Stream emits.
type Options struct {
	Lines  int
	Follow bool
	Item   string
}

// Stream emits events from source, or raw lines from the log file at path
// when the API is unreachable. It reports whether anything was emitted.
func Stream(ctx context.Context, source EventSource, path string, opts Options, onEvent func(api.LogEvent), onLine func(string)) (bool, error) {
	if source != nil {
		printed, err := streamEvents(ctx, source, opts, onEvent)
		if err == nil || !apiclient.IsAPIUnavailable(err) || printed {
			return printed, ignoreCancel(err)
		}
	}
	if strings.TrimSpace(opts.Item) != "" {
		return false, ErrItemFilterRequiresAPI
	}
	if strings.TrimSpace(path) == "" {
		return false, apiclient.ErrAPIUnavailable
	}
	return streamFile(ctx, path, opts, onLine)
}

func streamEvents(ctx context.Context, source EventSource, opts Options, onEvent func(api.LogEvent)) (bool, error) {
	q := apiclient.LogQuery{Limit: opts.Lines, Tail: true, Item: opts.Item}
	if q.Limit <= 0 {
		q.Limit = defaultLines
	}
	printed := false
	for {
		resp, err := source.Logs(ctx, q)
		if err != nil {
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		q = apiclient.LogQuery{Since: resp.Next, Limit: defaultLines, Follow: true, Item: opts.Item}
	}
}

func streamFile(ctx context.Context, path string, opts Options, onLine func(string)) (bool, error) {
	tailOpts := TailOptions{Offset: -1, Limit: opts.Lines}
	if tailOpts.Limit <= 0 {
		tailOpts.Limit = defaultLines
	}
	printed := false
	for {
		res, err := Tail(ctx, path, tailOpts)
		if err != nil {
			return printed, ignoreCancel(err)
		}
		for _, line := range res.Lines {
			if onLine != nil {
				onLine(line)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		if ctx.Err() != nil {
			return printed, nil
		}
		tailOpts = TailOptions{Offset: res.Offset, Follow: true, Wait: fileWait}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
