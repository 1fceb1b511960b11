// Package logx configures newsbot's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, one line per event
//   - An optional operator channel sink (min-level + rate limiting)
package logx
