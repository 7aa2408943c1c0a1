// Package redis opens go-redis clients from environment configuration.
//
// Redis is optional for the directory services: it only backs the shared category tree
// cache. Callers check Config.Enabled before connecting:
//
//	if cfg.Redis.Enabled() {
//		client, err := redis.Connect(ctx, cfg.Redis)
//		if err != nil {
//			return err
//		}
//		defer client.Close()
//	}
//
// Healthcheck adapts a client to pkg/health.
package redis
