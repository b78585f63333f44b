// Package resource limits the resources an index may consume.
//
// The Controller governs two resource types:
//
//   - Queries: a weighted semaphore bounds the read transactions running at once
//   - IO: a token bucket throttles snapshot streams so they do not starve queries
//
// # Query Slots
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentQueries: 8,
//	})
//
//	if err := rc.AcquireQuery(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseQuery()
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	writer := resource.NewRateLimitedWriter(ctx, file, rc)
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
