// Package restclient implements the engine's Transport contract over
// HTTP against a journey-style authentication server.
//
// The server API is a small REST surface: an authenticate endpoint that
// both opens a journey and advances it, a token endpoint exchanging the
// established session for an access token, a userinfo endpoint, and a
// logout endpoint. Session continuity between calls rides on cookies, so
// every [Client] owns a cookie jar.
//
// Failures carry the server's own message where one exists: a non-2xx
// response body of the form {"message": "..."} becomes the Message of the
// returned TransportError, which is what end users eventually see on the
// form.
package restclient
