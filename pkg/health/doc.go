// Package health runs dependency checks for readiness probes.
//
//	checker := health.New(
//		health.WithTimeout(3*time.Second),
//		health.WithCheck("database", db.Healthcheck(pool)),
//	)
//	if redisClient != nil {
//		checker.Add("redis", redis.Healthcheck(redisClient))
//	}
//
//	r.Get("/health/live", health.Live())
//	r.Get("/health", checker.Ready())
//
// Checks run in parallel. A check that outlives the timeout is reported with
// ErrCheckTimeout. Ready answers 503 when any check fails.
package health
