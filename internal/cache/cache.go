package cache

import "time"

// Cache defines the interface for caching computed values
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Clear()
}

// CacheKey generates a cache key for a node within a debate topic
func CacheKey(topic, nodeID string) string {
	return "reasongraph:v1:" + topic + ":" + nodeID
}
