package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"tondev/internal/rules"

	"golang.org/x/sync/singleflight"
)

// matchCache memoizes rule evaluation by file content for one run. Contract
// trees often carry several copies of the same imports (stdlib.fc, op-codes);
// each distinct content is evaluated once, and concurrent workers asking for
// the same digest share a single evaluation.
type matchCache struct {
	rules []rules.Rule
	group singleflight.Group
	data  sync.Map // digest -> []match
	hits  atomic.Int64
}

func newMatchCache(selected []rules.Rule) *matchCache {
	return &matchCache{rules: selected}
}

func (c *matchCache) evaluate(text string) []match {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	if v, ok := c.data.Load(key); ok {
		c.hits.Add(1)
		return v.([]match)
	}
	v, _, shared := c.group.Do(key, func() (any, error) {
		m := evaluate(text, c.rules)
		c.data.Store(key, m)
		return m, nil
	})
	if shared {
		c.hits.Add(1)
	}
	return v.([]match)
}

// Hits reports how many files reused an earlier evaluation.
func (c *matchCache) Hits() int64 {
	return c.hits.Load()
}
