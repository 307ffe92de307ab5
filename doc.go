// Package goJourney drives server-directed, multi-round authentication
// journeys: the step exchange, failure recovery with retry-and-merge
// semantics, and the transition into an authenticated session.
//
// A journey is a sequence of request/response exchanges with an
// authentication server. The caller supplies an intent (login or register)
// and, for each step the server hands back, the completed payload. The
// [Engine] issues exactly one network exchange per invocation and reports a
// tagged [Outcome]: another step to render, terminal success, or a failure.
//
// # Architecture boundaries
//
// goJourney is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Step, Outcome, Notice, MetricsSnapshot). Rendering,
// navigation, and secure token storage belong to the caller; the network
// layer is abstracted behind the [Transport] interface (see restclient for
// the HTTP implementation) and the authenticated flag behind [SessionStore]
// (see session for the Redis-backed implementation).
//
// # What this package must NOT do
//
//   - Interpret callback contents. Callbacks are opaque and pass through
//     untouched; only the reserved payload keys "authId" and "sessionToken"
//     have meaning to the engine.
//   - Perform OAuth/OIDC token exchange itself. Transport.Token is an opaque
//     external call; the token package only inspects what comes back.
//   - Block the caller on the post-authentication sequence. PostAuth runs on
//     a background goroutine and reports through the notice channel.
//
// # Concurrency contract
//
// One logical journey per Engine instance. At most one start/submit exchange
// is in flight at a time; a second concurrent Submit fails with
// [ErrSubmitInFlight]. All journey state is owned by the engine and never
// escapes to collaborators.
package goJourney
