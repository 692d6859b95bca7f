// Package health serves liveness and readiness probes.
//
// [LivenessHandler] answers OK while the process runs. [ReadinessHandler]
// runs named [Checks] in parallel under a shared timeout and answers 503 when
// any of them fails:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "store": db.Healthcheck(conn),
//	    "redis": redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second)))
//
// Probes get plain text. Clients sending Accept: application/json or
// ?format=json get the per-check report:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "store": {"status": "healthy", "duration_ms": 1},
//	    "redis": {"status": "unhealthy", "error": "health: check timeout", "duration_ms": 3000}
//	  }
//	}
package health
