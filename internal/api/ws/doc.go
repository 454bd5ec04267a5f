// Package ws serves the picker host over a WebSocket.
//
// The host UI connects to GET /picker. The hub implements picker.Launcher by
// sending launch and view messages to the newest host; the host answers launches
// with result messages carrying the request code it was given.
//
// Message Types (Server → Host):
//   - launch: show a picker (request_code, action, initial_uri, title, mime_types, suggested_name, flags)
//   - view: open a document in the host viewer (uri, mime_type, title)
//   - pong, error
//
// Message Types (Host → Server):
//   - result: request_code, ok, uri, flags
//   - ping
//
// Example Usage:
//
//	hub := ws.NewHub(logger, metrics, nil)
//	hub.Bind(bridge)
//	router.GET("/picker", hub.HandleConnection)
package ws
