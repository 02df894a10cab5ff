package modes

import (
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// icaoCacheTTL is how long a recently-seen ICAO address stays eligible
// for AP brute-force recovery.
const icaoCacheTTL = 60 * time.Second

// icaoCache remembers ICAO addresses seen on DF 11/17 frames with a
// good, un-XORed checksum, so that DF 0/4/5/16/20/21 frames (whose
// checksum field is the CRC XORed with the sender's address) can be
// recovered by brute force.
type icaoCache struct {
	c *cache.Cache
}

func newICAOCache() *icaoCache {
	return &icaoCache{c: cache.New(icaoCacheTTL, 10*time.Second)}
}

func (ic *icaoCache) add(addr uint32) {
	ic.c.SetDefault(strconv.FormatUint(uint64(addr), 10), addr)
}

func (ic *icaoCache) seenRecently(addr uint32) bool {
	_, found := ic.c.Get(strconv.FormatUint(uint64(addr), 10))
	return found
}
