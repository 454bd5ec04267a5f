/*
Package monitoring collects Prometheus metrics on a private registry.

Metrics implements the bridge's Recorder, so document operations, delivered failures,
pending picker requests, token collisions and transcoded bytes are reported without the
domain packages importing Prometheus.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "documents", "readFile")
	// ... run the tool ...
	timer.Stop("success")
*/
package monitoring
