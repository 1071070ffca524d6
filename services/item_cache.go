package services

import (
	"slices"
	"sync"
	"time"

	"github.com/GrainArc/DropMap/models"
)

// SearchTTL 搜索结果缓存时间
const SearchTTL = 60 * time.Second

// CacheItem 缓存项
type CacheItem struct {
	Items     []models.FoundItem
	ExpiresAt time.Time
}

// ItemCache 以查询字符串为键的搜索结果缓存。
// 过期项在读写时顺带清理，不启动后台协程。
type ItemCache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	ttl   time.Duration
	now   func() time.Time
	gen   uint64 // 每次 Clear 加一
}

// NewItemCache 创建缓存
func NewItemCache(ttl time.Duration) *ItemCache {
	return &ItemCache{
		items: make(map[string]*CacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get 获取缓存，返回副本
func (c *ItemCache) Get(query string) ([]models.FoundItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[query]
	if !ok {
		return nil, false
	}
	if !c.now().Before(item.ExpiresAt) {
		return nil, false
	}
	return slices.Clone(item.Items), true
}

// Generation 当前缓存代数，查库前读取，交给 SetAt
func (c *ItemCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Set 设置缓存
func (c *ItemCache) Set(query string, items []models.FoundItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(query, items)
}

// SetAt 仅当读库以来没有发生过 Clear 时写入，返回是否写入
func (c *ItemCache) SetAt(gen uint64, query string, items []models.FoundItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.set(query, items)
	return true
}

func (c *ItemCache) set(query string, items []models.FoundItem) {
	c.cleanup()
	c.items[query] = &CacheItem{
		Items:     slices.Clone(items),
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// cleanup 清理过期缓存，调用方持有写锁
func (c *ItemCache) cleanup() {
	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}

// Clear 清空缓存（任何一次成功写入后调用）
func (c *ItemCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*CacheItem)
	c.gen++
}

// Size 获取缓存大小
func (c *ItemCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
