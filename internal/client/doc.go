// Package client is a Go client for the docbridge HTTP API.
//
// Requests go through resty on a go-retryablehttp transport. Reads are retried on
// connection errors and 5xx responses; tool execution is never retried because
// writes are not idempotent. A circuit breaker fails fast while the server is down.
//
//	c := client.New("http://127.0.0.1:8000", client.DefaultConfig())
//	res, err := c.Execute(ctx, "documents.getInfo", map[string]interface{}{"uri": uri})
package client
