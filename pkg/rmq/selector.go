package rmq

// takePartitions picks exactly n candidate partitions for one send
// attempt: prefer non-isolated partitions, fall back to the full set if
// everything is isolated, advance the per-topic cursor for round-robin
// rotation across calls, and avoid repeating a broker endpoint within
// one call when an alternative exists.
func takePartitions(info *PublishInfo, isolation *isolationRegistry, n int) ([]Partition, error) {
	all := info.Partitions
	if len(all) == 0 {
		return nil, ErrNoWritablePartition
	}

	pool := all
	if isolation != nil {
		isolated := isolation.snapshot()
		filtered := make([]Partition, 0, len(all))
		for _, p := range all {
			if _, bad := isolated[p.Target.Endpoints.key()]; !bad {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
		// else: best-effort fallback to the full set; the caller will
		// probably fail, but we must not deadlock.
	}

	result := make([]Partition, 0, n)
	usedEndpoint := make(map[string]bool, n)

	// First pass: round-robin over pool, skipping a partition whose
	// broker endpoint we've already used this call when an alternative
	// endpoint is still available in pool.
	attempts := 0
	maxAttempts := len(pool) * 2
	for len(result) < n && attempts < maxAttempts {
		idx := int(info.nextCursor()) % len(pool)
		p := pool[idx]
		key := p.Target.Endpoints.key()
		if usedEndpoint[key] && distinctEndpointCount(pool) > len(usedEndpoint) {
			attempts++
			continue
		}
		result = append(result, p)
		usedEndpoint[key] = true
		attempts++
	}

	// Second pass: pool was smaller than n (or exhausted distinct
	// endpoints): fill the remainder by plain rotation, repeats allowed.
	for len(result) < n {
		idx := int(info.nextCursor()) % len(pool)
		result = append(result, pool[idx])
	}

	return result, nil
}

func distinctEndpointCount(partitions []Partition) int {
	seen := make(map[string]struct{}, len(partitions))
	for _, p := range partitions {
		seen[p.Target.Endpoints.key()] = struct{}{}
	}
	return len(seen)
}
