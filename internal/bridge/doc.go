// Package bridge routes between the interception layer, client requests,
// and the download service.
//
// Track listings observed by the interceptor land in the session store and
// go out as TRACKS_AVAILABLE notifications. GET_TRACKS and DOWNLOAD_SUBTITLE
// requests from websocket or HTTP clients are answered here, each tagged
// with a request ID that follows the download into logs and history.
package bridge
