package rediscache

import (
	"context"
)

// Batch sizes for SCAN-based deletion: how many keys SCAN asks for per
// round and how many keys go into a single delete command.
const (
	scanCount       = 5000
	deleteBatchSize = 1024
)

// DelByPattern deletes every key matching the glob pattern, scanning in
// batches so large keyspaces never block the server. UNLINK is preferred;
// if the server rejects it once, the call falls back to DEL for the rest.
func (p *Pool) DelByPattern(ctx context.Context, pattern string) (uint64, error) {
	var (
		cursor          uint64
		totalDeleted    uint64
		unlinkSupported = true
	)

	for {
		keys, next, err := p.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return totalDeleted, err
		}

		for start := 0; start < len(keys); start += deleteBatchSize {
			end := start + deleteBatchSize
			if end > len(keys) {
				end = len(keys)
			}
			chunk := keys[start:end]

			if unlinkSupported {
				n, unlinkErr := p.client.Unlink(ctx, chunk...).Result()
				if unlinkErr == nil {
					totalDeleted += uint64(n)
					continue
				}
				unlinkSupported = false
			}

			n, delErr := p.client.Del(ctx, chunk...).Result()
			if delErr != nil {
				return totalDeleted, delErr
			}
			totalDeleted += uint64(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return totalDeleted, nil
}

// DelPrefix deletes every key under the prefix, equivalent to
// pattern = prefix + "*".
func (p *Pool) DelPrefix(ctx context.Context, prefix string) (uint64, error) {
	return p.DelByPattern(ctx, prefix+"*")
}
