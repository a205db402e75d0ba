package historymanager

import (
	"context"
	"errors"

	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
)

var (
	// ErrSnapshotNotFound 按 ID 找不到快照
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInvalidChangeType 变更类型不在封闭集合内
	ErrInvalidChangeType = errors.New("invalid change type")
)

// ChangeType 快照的变更类型
type ChangeType string

const (
	ChangeLayoutEdit ChangeType = "layout-edit"
	ChangeQueryEdit  ChangeType = "query-edit"
	ChangePageAdd    ChangeType = "page-add"
	ChangePageRemove ChangeType = "page-remove"
	ChangeImport     ChangeType = "import"
	ChangeManual     ChangeType = "manual"
)

// Valid 是否属于封闭集合
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeLayoutEdit, ChangeQueryEdit, ChangePageAdd, ChangePageRemove, ChangeImport, ChangeManual:
		return true
	}
	return false
}

// Snapshot 配置快照，追加后不再修改
type Snapshot struct {
	ID         string                   `json:"id"`
	Timestamp  int64                    `json:"timestamp"` // 毫秒
	ChangeType ChangeType               `json:"changeType"`
	Label      string                   `json:"label,omitempty"`
	Config     cfgtypes.DashboardConfig `json:"config"`
}

// DeepCopy 完整复制快照
func (s Snapshot) DeepCopy() Snapshot {
	out := s
	out.Config = s.Config.DeepCopy()
	return out
}

// History 线性快照序列与当前指针
// 非空时 0 <= CurrentIndex < len(Snapshots)，为空时 CurrentIndex == -1。
type History struct {
	Snapshots    []Snapshot `json:"snapshots"`
	CurrentIndex int        `json:"currentIndex"`
}

// EmptyHistory 空历史
func EmptyHistory() History {
	return History{Snapshots: []Snapshot{}, CurrentIndex: -1}
}

// Len 快照数量
func (h History) Len() int { return len(h.Snapshots) }

// Current 当前指针指向的快照
func (h History) Current() (Snapshot, bool) {
	if h.CurrentIndex < 0 || h.CurrentIndex >= len(h.Snapshots) {
		return Snapshot{}, false
	}
	return h.Snapshots[h.CurrentIndex], true
}

// IndexOf 按 ID 查找快照下标
func (h History) IndexOf(id string) int {
	for i := range h.Snapshots {
		if h.Snapshots[i].ID == id {
			return i
		}
	}
	return -1
}

// DeepCopy 完整复制历史
func (h History) DeepCopy() History {
	out := History{Snapshots: make([]Snapshot, len(h.Snapshots)), CurrentIndex: h.CurrentIndex}
	for i, s := range h.Snapshots {
		out.Snapshots[i] = s.DeepCopy()
	}
	return out
}

// normalize 修正从存储读出的历史，保证指针不变式与容量上限
func (h History) normalize(maxSnapshots int) History {
	if h.Snapshots == nil {
		h.Snapshots = []Snapshot{}
	}
	if len(h.Snapshots) == 0 {
		h.CurrentIndex = -1
		return h
	}
	if maxSnapshots > 0 && len(h.Snapshots) > maxSnapshots {
		drop := len(h.Snapshots) - maxSnapshots
		h.Snapshots = h.Snapshots[drop:]
		h.CurrentIndex -= drop
	}
	if h.CurrentIndex < 0 {
		h.CurrentIndex = 0
	}
	if h.CurrentIndex >= len(h.Snapshots) {
		h.CurrentIndex = len(h.Snapshots) - 1
	}
	return h
}

// Result 导航类操作的结果，常规的无操作返回 Success=false
type Result struct {
	Success  bool      `json:"success"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// LiveConfig 当前生效配置的读写能力
type LiveConfig interface {
	// Current 返回当前配置的深拷贝
	Current() cfgtypes.DashboardConfig
	// Apply 替换当前配置，不产生快照
	Apply(ctx context.Context, cfg cfgtypes.DashboardConfig) error
}
