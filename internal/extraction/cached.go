package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// CachedExtractor serves repeated documents from a cache keyed by content
// digest and model. Cache failures are logged and never fail an extraction.
type CachedExtractor struct {
	next    port.DocumentExtractor
	cache   port.ExtractionCache
	modelID string
}

// NewCachedExtractor wraps next with cache.
func NewCachedExtractor(next port.DocumentExtractor, cache port.ExtractionCache, modelID string) *CachedExtractor {
	return &CachedExtractor{next: next, cache: cache, modelID: modelID}
}

// CacheKey returns the cache key for a document read by one extraction
// resource under a model.
func CacheKey(modelID, endpoint string, fileBytes []byte) string {
	sum := sha256.Sum256(fileBytes)
	res := sha256.Sum256([]byte(strings.TrimRight(strings.ToLower(endpoint), "/")))
	return "extraction:" + modelID + ":" + hex.EncodeToString(res[:8]) + ":" + hex.EncodeToString(sum[:])
}

// Extract resolves credentials before touching the cache, so a caller
// without a usable endpoint and key never receives a cached result.
func (c *CachedExtractor) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	endpoint := input.Credentials.Endpoint
	if resolver, ok := c.next.(port.CredentialResolver); ok {
		creds, err := resolver.ResolveCredentials(input.Credentials)
		if err != nil {
			return nil, err
		}
		endpoint = creds.Endpoint
	}
	key := CacheKey(c.modelID, endpoint, input.FileBytes)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("extraction.CachedExtractor: cache get failed for %s: %v", key, err)
	} else if ok {
		return cached, nil
	}

	result, err := c.next.Extract(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, result); err != nil {
		log.Printf("extraction.CachedExtractor: cache set failed for %s: %v", key, err)
	}
	return result, nil
}
