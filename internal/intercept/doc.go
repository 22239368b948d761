// Package intercept injects the subtitle delivery format into outgoing
// manifest requests and observes subtitle track listings in responses.
//
// The Interceptor works on parsed documents and raw bodies; Transport wraps
// any http.RoundTripper with it, and NewReverseProxy puts that transport in
// front of the platform API. Failures inside the hooks are logged and
// counted, and the original traffic always reaches its destination.
package intercept
