package resource

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentQueries is the maximum number of queries running at once.
	// If 0, queries are not limited.
	MaxConcurrentQueries int64

	// IOLimitBytesPerSec is the maximum snapshot IO throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages query concurrency and IO throughput.
type Controller struct {
	cfg Config

	querySem  *semaphore.Weighted // nil if unlimited
	ioLimiter *rate.Limiter       // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxConcurrentQueries > 0 {
		c.querySem = semaphore.NewWeighted(cfg.MaxConcurrentQueries)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the limits the controller was created with.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireQuery reserves a query slot, blocking while all slots are busy.
func (c *Controller) AcquireQuery(ctx context.Context) error {
	if c == nil || c.querySem == nil {
		return ctx.Err()
	}
	return c.querySem.Acquire(ctx, 1)
}

// TryAcquireQuery reserves a query slot without blocking.
func (c *Controller) TryAcquireQuery() bool {
	if c == nil || c.querySem == nil {
		return true
	}
	return c.querySem.TryAcquire(1)
}

// ReleaseQuery releases a query slot.
func (c *Controller) ReleaseQuery() {
	if c == nil || c.querySem == nil {
		return
	}
	c.querySem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}

// RateLimitedWriter throttles writes through a Controller.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

// NewRateLimitedWriter wraps w.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, c *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, c: c}
}

// Write implements io.Writer.
func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.c.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader throttles reads through a Controller.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	c   *Controller
}

// NewRateLimitedReader wraps r.
func NewRateLimitedReader(ctx context.Context, r io.Reader, c *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, c: c}
}

// Read implements io.Reader. Tokens are charged for the bytes actually read.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.c.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
