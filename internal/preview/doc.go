// Package preview implements the development server behind `pigment
// preview`.
//
// The server parses authored site pages, runs the block decoration
// pipeline over them per request, and serves the decorated HTML. Around
// that core it carries the dev conveniences: a /sync websocket hub that
// mirrors store state between preview processes, a Bridge that plugs a
// local broker into a remote hub, a file watcher that broadcasts reload
// signals when site content changes, Prometheus metrics on /metrics,
// and optional span tracing to stdout.
//
// Everything here is development tooling. The runtime packages never
// import it.
package preview
