// Package session tracks what the host page is playing and what has been
// observed for it: per-item track listings, cached subtitle blobs, the
// current item, and the last selected track.
//
// A Poller samples an ItemSource on a fixed interval and is the only writer
// of the current item. PageSource reads the item ID from an HTML snapshot of
// the host page; WatchFile can nudge the poller when that snapshot changes.
package session
