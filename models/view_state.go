package models

import "slices"

// 地图默认视角（东京）
const (
	DefaultLat   = 35.6895
	DefaultLon   = 139.6917
	DefaultZoom  = 12
	SelectedZoom = 16
)

// LatLng 经纬度
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ViewState 单个会话的界面状态，不落库
type ViewState struct {
	MapCenter LatLng `json:"map_center"`
	MapZoom   int    `json:"map_zoom"`
	// ViewVersion 服务端每次主动移动地图时递增，用于丢弃过期的平移上报
	ViewVersion   int     `json:"view_version"`
	FormLat       float64 `json:"form_lat"`
	FormLon       float64 `json:"form_lon"`
	LastClick     *LatLng `json:"last_click,omitempty"`
	LastSelection []int   `json:"last_selection,omitempty"`
	// TableSelection 表格控件当前的选中行，下一轮在第 2 步与 LastSelection 比较
	TableSelection []int `json:"table_selection,omitempty"`
}

// NewViewState 创建默认状态
func NewViewState() ViewState {
	return ViewState{
		MapCenter: LatLng{Lat: DefaultLat, Lng: DefaultLon},
		MapZoom:   DefaultZoom,
		FormLat:   DefaultLat,
		FormLon:   DefaultLon,
	}
}

// Clone 深拷贝，避免会话之间共享切片和指针
func (s ViewState) Clone() ViewState {
	out := s
	if s.LastClick != nil {
		click := *s.LastClick
		out.LastClick = &click
	}
	out.LastSelection = slices.Clone(s.LastSelection)
	out.TableSelection = slices.Clone(s.TableSelection)
	return out
}
