package services

import (
	"slices"

	"github.com/GrainArc/DropMap/models"
)

// Interaction 浏览器上报的一次交互，携带各控件的当前值
type Interaction struct {
	Kind      EventKind       `json:"kind"`
	Search    string          `json:"search"`
	Selection []int           `json:"selection"`
	Map       *MapReport      `json:"map,omitempty"`
	Form      *models.NewItem `json:"form,omitempty"`
}

// Frame 一次交互最终需要渲染的内容
type Frame struct {
	Search    string             `json:"search"`
	Map       MapView            `json:"map"`
	Form      FormDefaults       `json:"form"`
	Rows      []models.FoundItem `json:"rows"`
	Selection []int              `json:"selection"`
	Notices   []Notice           `json:"notices"`
	Passes    int                `json:"passes"`
}

// FramePresenter 把渲染结果记录到 Frame，并用交互里的数据回答地图、表单和表格
type FramePresenter struct {
	in    Interaction
	frame Frame
}

// NewFramePresenter 创建 presenter
func NewFramePresenter(in Interaction) *FramePresenter {
	return &FramePresenter{
		in: in,
		frame: Frame{
			Search:  in.Search,
			Rows:    []models.FoundItem{},
			Notices: []Notice{},
		},
	}
}

// Rerun 重跑用的 presenter：保留搜索词、表格选中和已有提示，丢弃地图上报和表单提交
func (p *FramePresenter) Rerun() *FramePresenter {
	next := NewFramePresenter(Interaction{
		Kind:      p.in.Kind,
		Search:    p.in.Search,
		Selection: slices.Clone(p.in.Selection),
	})
	next.frame.Notices = append(next.frame.Notices, p.frame.Notices...)
	return next
}

func (p *FramePresenter) SearchText() string {
	return p.in.Search
}

func (p *FramePresenter) RenderMap(view MapView) *MapReport {
	p.frame.Map = view
	return p.in.Map
}

// RenderForm 有提交时回显提交内容，保证失败后输入不丢失
func (p *FramePresenter) RenderForm(defaults FormDefaults) *models.NewItem {
	p.frame.Form = defaults
	if sub := p.in.Form; sub != nil {
		p.frame.Form.Title = sub.Title
		p.frame.Form.Description = sub.Description
		if sub.Latitude != nil {
			p.frame.Form.Latitude = *sub.Latitude
		}
		if sub.Longitude != nil {
			p.frame.Form.Longitude = *sub.Longitude
		}
	}
	return p.in.Form
}

func (p *FramePresenter) RenderTable(rows []models.FoundItem) []int {
	p.frame.Rows = rows
	p.frame.Selection = slices.Clone(p.in.Selection)
	return p.in.Selection
}

// Notify 相同提示只保留一条
func (p *FramePresenter) Notify(n Notice) {
	if slices.Contains(p.frame.Notices, n) {
		return
	}
	p.frame.Notices = append(p.frame.Notices, n)
}

// Frame 返回记录的渲染结果
func (p *FramePresenter) Frame() Frame {
	return p.frame
}
