// Package handlers contains reusable HTTP building blocks for the API server:
// health checking and generic middleware.
//
// # Health Checks
//
// The HealthChecker interface allows registering named checks that are
// executed in parallel, each with its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(conn))
//	checker.AddCheck("redis", handlers.NewCacheCheck(redisClient))
//
//	status := checker.Check(ctx)
//
// # Middleware
//
//	handler := handlers.ChainHandler(
//	    router,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	    handlers.RequestSizeLimitMiddleware(64<<10),
//	)
package handlers
