package anthropic

// CachedSystemBlocks wraps a system prompt in a single block with an
// ephemeral cache breakpoint, so repeated stage predictions reuse the cached
// field catalog prompt.
func CachedSystemBlocks(text, ttl string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: ttl},
	}}
}
