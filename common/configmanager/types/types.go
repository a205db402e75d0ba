package types

import (
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
)

// Layout 组件在页面网格中的位置
type Layout struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Widget 页面组件，只保存查询引用，不保存查询字符串
type Widget struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Type          string            `json:"type"`
	QueryRef      string            `json:"queryRef,omitempty"`
	QueueQueryRef string            `json:"queueQueryRef,omitempty"`
	Variables     map[string]string `json:"variables,omitempty"`
	Layout        Layout            `json:"layout"`
}

// Page 仪表盘页面
type Page struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Widgets []Widget `json:"widgets"`
}

// DashboardConfig 用户可编辑的仪表盘配置
// Queries / QueueQueries 为用户覆盖库，与内置库合并后使用。
type DashboardConfig struct {
	Title        string                       `json:"title"`
	Pages        []Page                       `json:"pages"`
	Queries      querymanager.Catalog         `json:"queries"`
	QueueQueries querymanager.QueueQueryTable `json:"queueQueries"`
	Variables    map[string]string            `json:"variables,omitempty"`
}

// NewDashboardConfig 空配置
func NewDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Pages:        []Page{},
		Queries:      querymanager.Catalog{},
		QueueQueries: querymanager.QueueQueryTable{},
	}
}

// DeepCopy 完整复制，返回值与原配置不共享任何可变结构
func (c DashboardConfig) DeepCopy() DashboardConfig {
	out := DashboardConfig{
		Title:        c.Title,
		Queries:      c.Queries.Clone(),
		QueueQueries: c.QueueQueries.Clone(),
		Variables:    copyStringMap(c.Variables),
	}
	if out.Queries == nil {
		out.Queries = querymanager.Catalog{}
	}
	if out.QueueQueries == nil {
		out.QueueQueries = querymanager.QueueQueryTable{}
	}

	out.Pages = make([]Page, len(c.Pages))
	for i, p := range c.Pages {
		out.Pages[i] = p.DeepCopy()
	}
	return out
}

// DeepCopy 完整复制页面
func (p Page) DeepCopy() Page {
	out := Page{ID: p.ID, Title: p.Title, Widgets: make([]Widget, len(p.Widgets))}
	for i, w := range p.Widgets {
		out.Widgets[i] = w.DeepCopy()
	}
	return out
}

// DeepCopy 完整复制组件
func (w Widget) DeepCopy() Widget {
	out := w
	out.Variables = copyStringMap(w.Variables)
	return out
}

// FindPage 返回页面下标，不存在时返回 -1
func (c DashboardConfig) FindPage(id string) int {
	for i := range c.Pages {
		if c.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// FindWidget 返回组件下标，不存在时返回 -1
func (p Page) FindWidget(id string) int {
	for i := range p.Widgets {
		if p.Widgets[i].ID == id {
			return i
		}
	}
	return -1
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
