package utils

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Cache 本地 LRU 缓存，条目带 TTL。nil *Cache 表示缓存关闭，所有方法均为空操作。
type Cache struct {
	lruCache *lru.Cache[string, CacheItem]
	ttl      time.Duration
	now      func() time.Time

	// gen 每次删除递增，mu 保证比较与写入的原子性
	mu  sync.Mutex
	gen uint64
}

// NewCache returns nil when ttl or size is not positive.
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 || ttl <= 0 {
		return nil, nil
	}
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set 设置缓存，使用默认 TTL
func (c *Cache) Set(key string, data interface{}) {
	if c == nil {
		return
	}
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// Generation 返回当前失效代数，配合 SetIfGeneration 使用
func (c *Cache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores data only if no Delete or DeletePrefix ran since gen
// was read.
func (c *Cache) SetIfGeneration(key string, data interface{}, gen uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.Set(key, data)
	return true
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *Cache) Get(key string) interface{} {
	if c == nil {
		return nil
	}
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lruCache.Remove(key)
}

// DeletePrefix 删除所有以 prefix 开头的缓存
func (c *Cache) DeletePrefix(prefix string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for _, key := range c.lruCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lruCache.Remove(key)
		}
	}
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lruCache.Len()
}
