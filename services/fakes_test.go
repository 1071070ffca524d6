package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/GrainArc/DropMap/models"
)

// memStorage 内存版存储，记录调用次数
type memStorage struct {
	mu       sync.Mutex
	items    []models.FoundItem
	nextID   uint
	searches int
	inserts  int
	down     bool
}

func (m *memStorage) InsertItem(_ context.Context, title, description string, lat, lon float64) (bool, *Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.down {
		return false, &Notice{Level: LevelError, Text: "Error inserting data: database unreachable"}
	}
	m.nextID++
	item := models.FoundItem{
		ID:          m.nextID,
		Title:       title,
		Description: description,
		Latitude:    models.Degree(lat),
		Longitude:   models.Degree(lon),
		CreatedAt:   time.Now(),
	}
	m.items = append([]models.FoundItem{item}, m.items...)
	return true, nil
}

func (m *memStorage) SearchItems(_ context.Context, query string) ([]models.FoundItem, *Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.down {
		return []models.FoundItem{}, &Notice{Level: LevelError, Text: "Error fetching data: database unreachable"}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.FoundItem{}
	for _, it := range m.items {
		if q == "" || strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out, nil
}

// seed 按给定顺序写入，第一个参数在结果列表的第 0 行
func (m *memStorage) seed(items ...models.FoundItem) {
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		m.InsertItem(context.Background(), it.Title, it.Description, float64(it.Latitude), float64(it.Longitude))
	}
	m.inserts = 0
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func ptr[T any](v T) *T { return &v }
