// Package portal talks to the institutional registry: it discovers the login
// endpoint, authenticates, and submits attendance and grade batches.
//
// # Overview
//
// The registry is a third-party service whose path layout varies between
// deployments and which has no documented error schema. The package therefore
// splits into three parts:
//
//   - resolver.go: Resolver.Probe finds an existing path using sentinel credentials
//   - session.go: Manager.Login authenticates and caches the login path that worked
//   - submit.go: Submitter lists classes, reads absence details and submits batches
//
// Shared pieces live in attempt.go (the per-candidate fold), classify.go (login
// body interpretation), wire.go (request bodies and envelope handling) and
// errors.go (the error taxonomy).
//
// # Discovery Rule
//
// Candidates are tried strictly in order, one request at a time:
//
//   - 404: the path does not exist here, try the next one
//   - any other status: the path exists, stop
//   - transport failure: stop immediately, more candidates cannot help
//
// Bad credentials answer 200 or 401 just like a working login, so discovery does
// not need valid credentials.
//
// # Login
//
// Manager.Login orders candidates with the cached path first, posts the real
// credentials, and interprets the first non-404 answer. Bodies may be wrapped as
// {"d": value}; the envelope is removed first. Then:
//
//   - a string containing "error" or "fail" (any case) is a rejection
//   - an object with neither a user id nor a token is a rejection
//   - any other object is a session; missing ids become "0"
//   - anything else is malformed and also ends the login
//
// A rejection stops the loop: once a path has run login logic, its siblings
// cannot give a different answer.
//
// # Errors
//
// Every failure matches exactly one sentinel with errors.Is:
//
//   - ErrTransport (*TransportError): DNS, connect or timeout
//   - ErrDiscovery (*DiscoveryError): every candidate answered 404
//   - ErrAuth (*AuthError): the login endpoint declined
//   - ErrRemote (*RemoteError): a later call answered non-2xx or with an error value
//   - ErrInvalidInput, ErrNoSession: rejected before any network call
//
// UserMessage converts any of them into a sentence for the UI.
//
// # Concurrency
//
// Resolver, Manager and Submitter hold no mutable state of their own and may be
// shared. The endpoints store is read once at the start of Login and written once
// on success; two concurrent Logins against one file-backed store may interleave
// their cache writes.
package portal
