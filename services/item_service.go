package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GrainArc/DropMap/models"
	"github.com/go-playground/validator/v10"
)

// ItemStorage 存储网关需要提供的能力
type ItemStorage interface {
	InsertItem(ctx context.Context, title, description string, lat, lon float64) (bool, *Notice)
	SearchItems(ctx context.Context, query string) ([]models.FoundItem, *Notice)
}

// ItemService 页面使用的查询入口：带缓存的搜索和带校验的提交
type ItemService struct {
	storage  ItemStorage
	cache    *ItemCache
	validate *validator.Validate
}

// NewItemService 创建服务
func NewItemService(storage ItemStorage, cache *ItemCache) *ItemService {
	return &ItemService{
		storage:  storage,
		cache:    cache,
		validate: validator.New(),
	}
}

// Search 先查缓存，未命中时访问数据库；失败的查询不缓存。
// 查库期间有写入清空过缓存时，本次结果也不缓存
func (s *ItemService) Search(ctx context.Context, term string) ([]models.FoundItem, *Notice) {
	if items, ok := s.cache.Get(term); ok {
		return items, nil
	}
	gen := s.cache.Generation()
	items, notice := s.storage.SearchItems(ctx, term)
	if notice == nil {
		s.cache.SetAt(gen, term, items)
	}
	return items, notice
}

// Submit 校验后写入，成功时整体清空缓存
func (s *ItemService) Submit(ctx context.Context, in models.NewItem) (bool, *Notice) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.Validate(in); err != nil {
		return false, &Notice{Level: LevelWarning, Text: validationMessage(err)}
	}
	ok, notice := s.storage.InsertItem(ctx, in.Title, in.Description, *in.Latitude, *in.Longitude)
	if !ok {
		return false, notice
	}
	s.cache.Clear()
	return true, &Notice{Level: LevelSuccess, Text: "Submitted successfully!"}
}

// Validate 检查必填项
func (s *ItemService) Validate(in models.NewItem) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "Title" && fe.Tag() == "max" {
				return "Title must be at most 100 characters."
			}
		}
	}
	return "Title, Latitude, and Longitude are required."
}
