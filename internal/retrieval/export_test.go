package retrieval

import "time"

// SetClock replaces the cache's time source.
func (c *CachedClient) SetClock(now func() time.Time) {
	c.now = now
}
