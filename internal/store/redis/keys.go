package redis

const (
	// DefaultNamespace prefixes every journal key so several tools can share
	// one Redis database.
	DefaultNamespace = "reflux:"
)

// namespacedKey returns the Redis key for a journal storage key.
func namespacedKey(namespace, key string) string {
	return namespace + key
}
