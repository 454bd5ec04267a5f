/*
Package server assembles docbridge: configuration, storage providers, the document
bridge, the service registry and the gin router.

Routes:

	GET  /                  liveness
	GET  /health            registry stats, pending picker requests, connected hosts
	GET  /services          service catalog
	POST /services/discover rank services for a query
	POST /services/execute  run a tool and wait for its outcome
	GET  /picker            picker host WebSocket
	POST /picker/result     picker result over HTTP
	GET  /metrics           Prometheus exposition
	GET  /metrics/json      metrics snapshot

Usage:

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Run(ctx)
*/
package server
