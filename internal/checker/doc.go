// Package checker implements the probes behind an endpoint analysis.
//
// Architecture overview:
//
//   - DNSTimer resolves the target host and measures resolution time.
//   - Fetcher issues the GET request, follows redirects one hop at a time so
//     each hop is recorded, caps the body size and classifies failures into
//     the ErrorCode taxonomy via Classify.
//   - TLSInspector opens a separate TLS session to read the leaf certificate
//     without rejecting it, then judges trust on its own.
//   - AnalyzeHeaders and AnalyzeContent summarize a successful response.
//   - ValidateURL guards every entry point before any network activity.
//
// Every probe takes a clock.Clock so timing and expiry math can be driven
// deterministically in tests.
package checker
