// Package log provides structured capture of set coordination events.
//
// This package defines the Logger interface and Event types for recording
// what the coordinator does on the wire: attribute operations, procedure
// state changes, lock changes and errors, each tagged with the member
// connection they belong to. It is separate from operational logging
// (slog) - capture produces a complete machine-readable trace for
// debugging and analysis.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/csip/coordinator.clog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/csip/coordinator.clog"),
//	)
//
// # File Format
//
// Capture files use CBOR encoding with integer keys. Reader replays and
// filters capture files.
package log
