// Package redis connects to Redis and exposes a small blob Storage used as a
// durable session backend.
//
// Connect retries the initial ping according to Config:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Storage satisfies session.Backend, so the current session can live in Redis:
//
//	store := session.NewBlobStore(redis.NewStorageWithConfig(client, cfg))
//
// Healthcheck returns a probe suitable for readiness endpoints.
package redis
