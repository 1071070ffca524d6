package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/GrainArc/DropMap/models"
	"gorm.io/gorm"
)

// ItemGateway found_items 表的唯一访问入口。
// 所有数据库错误在这里被拦截，调用方只会拿到 bool / 空切片和一条提示。
type ItemGateway struct {
	open func() (*gorm.DB, error)

	mu sync.Mutex
	db *gorm.DB
}

// NewItemGateway 创建网关，连接在首次使用时才建立
func NewItemGateway(open func() (*gorm.DB, error)) *ItemGateway {
	return &ItemGateway{open: open}
}

// conn 获取连接；失败时下次调用会重试
func (g *ItemGateway) conn() (*gorm.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db != nil {
		return g.db, nil
	}
	db, err := g.open()
	if err != nil {
		return nil, fmt.Errorf("connect: %w: %w", ErrConnection, err)
	}
	g.db = db
	return db, nil
}

// reset 连接类错误后丢弃旧句柄
func (g *ItemGateway) reset(err error) {
	if !isConnectionError(err) {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db != nil {
		if sqlDB, e := g.db.DB(); e == nil {
			sqlDB.Close()
		}
		g.db = nil
	}
}

// EnsureSchema 建表，可重复调用
func (g *ItemGateway) EnsureSchema(ctx context.Context) error {
	db, err := g.conn()
	if err != nil {
		return err
	}
	if err := models.EnsureSchema(ctx, db); err != nil {
		g.reset(err)
		return classifyError("ensure schema", err)
	}
	return nil
}

// InsertItem 参数化插入，失败时返回 false 和错误提示
func (g *ItemGateway) InsertItem(ctx context.Context, title, description string, lat, lon float64) (bool, *Notice) {
	if _, err := g.insert(ctx, title, description, lat, lon); err != nil {
		log.Printf("Error inserting data: %v", err)
		return false, noticeFor("Error inserting data", err)
	}
	return true, nil
}

func (g *ItemGateway) insert(ctx context.Context, title, description string, lat, lon float64) (models.FoundItem, error) {
	item := models.FoundItem{
		Title:       title,
		Description: description,
		Latitude:    models.Degree(lat),
		Longitude:   models.Degree(lon),
	}
	db, err := g.conn()
	if err != nil {
		return item, err
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		g.reset(err)
		return item, classifyError("insert item", err)
	}
	return item, nil
}

// SearchItems 按标题或描述模糊搜索（不区分大小写），新投稿在前。
// 查询失败时返回空结果和错误提示。
func (g *ItemGateway) SearchItems(ctx context.Context, query string) ([]models.FoundItem, *Notice) {
	items, err := g.search(ctx, query)
	if err != nil {
		log.Printf("Error fetching data: %v", err)
		return []models.FoundItem{}, noticeFor("Error fetching data", err)
	}
	return items, nil
}

func (g *ItemGateway) search(ctx context.Context, query string) ([]models.FoundItem, error) {
	db, err := g.conn()
	if err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Model(&models.FoundItem{})
	if term := strings.TrimSpace(query); term != "" {
		cond, like := likeClause(db.Dialector.Name(), term)
		tx = tx.Where(cond, like, like)
	}

	items := []models.FoundItem{}
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		g.reset(err)
		return nil, classifyError("search items", err)
	}
	return items, nil
}

// likeClause 标题或描述包含 term（不区分大小写）。
// postgres 用 ILIKE，非 ASCII 字母也能折叠；其余方言用 LOWER，sqlite 的 LOWER 只折叠 ASCII
func likeClause(dialect, term string) (string, string) {
	if dialect == "postgres" {
		return "title ILIKE ? ESCAPE '!' OR description ILIKE ? ESCAPE '!'", "%" + escapeLike(term) + "%"
	}
	return "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", "%" + escapeLike(strings.ToLower(term)) + "%"
}

// escapeLike 转义 LIKE 通配符，'!' 作为转义字符（mysql 下反斜杠不可移植）
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
