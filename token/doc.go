// Package token inspects access tokens without verifying them.
//
// The engine is a client of the authentication server, not its verifier:
// the server minted the token and the server validates it on every call.
// What the client needs is the metadata inside — expiry, subject, issuer —
// so local state such as the session flag's lifetime can line up with the
// token's. Parsing is therefore strictly unverified and must never be
// used to make a trust decision.
//
// # What this package must NOT do
//
//   - Verify signatures or accept signing keys.
//   - Decide whether a token is valid; only the server can.
//   - Import goJourney or session (no upward imports).
package token
