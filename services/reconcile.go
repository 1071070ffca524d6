package services

import (
	"context"
	"log"
	"slices"

	"github.com/GrainArc/DropMap/models"
	"github.com/paulmach/orb/geojson"
)

// maxPasses 单次交互最多执行的轮数（含强制重跑）
const maxPasses = 3

// EventKind 交互类型
type EventKind string

const (
	EventLoad   EventKind = "load"
	EventSearch EventKind = "search"
	EventMap    EventKind = "map"
	EventSelect EventKind = "select"
	EventSubmit EventKind = "submit"
)

// MapView 交给地图渲染的内容
type MapView struct {
	Center  models.LatLng              `json:"center"`
	Zoom    int                        `json:"zoom"`
	Version int                        `json:"version"`
	Markers *geojson.FeatureCollection `json:"markers"`
}

// MapReport 地图渲染后回传的平移、缩放和最近一次点击。
// Version 是客户端渲染时看到的 MapView.Version。
type MapReport struct {
	Center      *models.LatLng `json:"center,omitempty"`
	Zoom        *int           `json:"zoom,omitempty"`
	LastClicked *models.LatLng `json:"last_clicked,omitempty"`
	Version     int            `json:"version"`
}

// FormDefaults 表单预填值
type FormDefaults struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Presenter 渲染边界：地图、表单、表格和提示
type Presenter interface {
	SearchText() string
	RenderMap(view MapView) *MapReport
	RenderForm(defaults FormDefaults) *models.NewItem
	RenderTable(rows []models.FoundItem) []int
	Notify(n Notice)
}

// ItemFinder Reconciler 依赖的查询入口
type ItemFinder interface {
	Search(ctx context.Context, term string) ([]models.FoundItem, *Notice)
	Submit(ctx context.Context, in models.NewItem) (bool, *Notice)
}

// Reconciler 页面控制器：每次交互从上到下执行一遍，
// 根据输入更新 ViewState 并决定渲染内容
type Reconciler struct {
	items ItemFinder
}

// NewReconciler 创建控制器
func NewReconciler(items ItemFinder) *Reconciler {
	return &Reconciler{items: items}
}

// Pass 执行一轮，返回新状态以及是否需要立即重跑
func (r *Reconciler) Pass(ctx context.Context, state models.ViewState, p Presenter) (models.ViewState, bool) {
	state = state.Clone()
	rerun := false

	// 1. 搜索
	rows, notice := r.items.Search(ctx, p.SearchText())
	if notice != nil {
		p.Notify(*notice)
	}

	// 2. 表格选中变化时移动地图
	if sel := state.TableSelection; len(sel) == 0 {
		state.LastSelection = nil
	} else if !slices.Equal(sel, state.LastSelection) {
		if i := sel[0]; i >= 0 && i < len(rows) {
			state.MapCenter = models.LatLng{Lat: float64(rows[i].Latitude), Lng: float64(rows[i].Longitude)}
			state.MapZoom = models.SelectedZoom
			state.ViewVersion++
			state.LastSelection = slices.Clone(sel)
		}
	}

	// 3-4. 渲染地图
	report := p.RenderMap(MapView{
		Center:  state.MapCenter,
		Zoom:    state.MapZoom,
		Version: state.ViewVersion,
		Markers: BuildMarkers(rows),
	})

	if report != nil {
		// 5. 记住平移和缩放，只影响下一轮；早于服务端移动地图的上报直接丢弃
		if report.Version >= state.ViewVersion {
			if report.Center != nil {
				state.MapCenter = *report.Center
			}
			if report.Zoom != nil {
				state.MapZoom = *report.Zoom
			}
		}

		// 6. 新的点击写入表单坐标
		if c := report.LastClicked; c != nil && (state.LastClick == nil || *state.LastClick != *c) {
			state.FormLat, state.FormLon = c.Lat, c.Lng
			click := *c
			state.LastClick = &click
		}
	}

	// 7. 表单
	sub := p.RenderForm(FormDefaults{Latitude: state.FormLat, Longitude: state.FormLon})

	// 8. 提交
	if sub != nil {
		if sub.Latitude != nil {
			state.FormLat = *sub.Latitude
		}
		if sub.Longitude != nil {
			state.FormLon = *sub.Longitude
		}
		ok, notice := r.items.Submit(ctx, *sub)
		if notice != nil {
			p.Notify(*notice)
		}
		if ok {
			log.Printf("item %q submitted at (%f, %f)", sub.Title, state.FormLat, state.FormLon)
			state.LastClick = nil
			rerun = true
		}
	}

	// 9. 表格，选中变化留给下一轮第 2 步处理
	if sel := p.RenderTable(rows); !slices.Equal(sel, state.TableSelection) {
		state.TableSelection = slices.Clone(sel)
		rerun = true
	}

	return state, rerun
}

// Run 处理一次交互：执行 Pass，需要时用不含事件的输入重跑
func (r *Reconciler) Run(ctx context.Context, state models.ViewState, in Interaction) (models.ViewState, Frame) {
	p := NewFramePresenter(in)
	for pass := 1; ; pass++ {
		var rerun bool
		state, rerun = r.Pass(ctx, state, p)
		if !rerun || pass >= maxPasses {
			frame := p.Frame()
			frame.Passes = pass
			return state, frame
		}
		p = p.Rerun()
	}
}
