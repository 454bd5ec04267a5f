// Package main runs the docbridge server.
//
// The server exposes document tree and shared media operations to apps over
// HTTP, and talks to the picker host over a WebSocket at /picker.
//
// Configuration is layered: defaults, then the overlay file (--config or
// DOCBRIDGE_CONFIG), then environment variables, then flags.
//
// Usage:
//
//	./docbridge --port 8000 --volume primary=/srv/docs --media-root /srv/media
//
//	# Development mode (console logs, debug level)
//	./docbridge --dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
