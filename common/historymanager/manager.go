package historymanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
)

// Option 管理器选项
type Option func(*Manager)

// WithMaxSnapshots 设置快照容量上限
func WithMaxSnapshots(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSnapshots = n
		}
	}
}

// WithBroadcaster 设置变更通知
func WithBroadcaster(b Broadcaster) Option {
	return func(m *Manager) {
		if b != nil {
			m.broadcaster = b
		}
	}
}

// WithStoreKey 设置历史数据的存储键
func WithStoreKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// Manager 配置历史管理器：有界、持久化的线性撤销/重做栈
// 所有变更按 读取 -> 计算新状态 -> 持久化 -> 整体替换 的顺序执行，已追加的快照不会被原地修改。
// 需要同时改动当前配置时先落盘历史再应用配置，应用失败则回滚历史。
type Manager struct {
	store       Store
	live        LiveConfig
	broadcaster Broadcaster

	key          string
	maxSnapshots int

	// 串行化变更
	opMu sync.Mutex

	mu      sync.RWMutex
	history History
	loaded  bool

	log logx.Logger
}

// NewManager 创建历史管理器
func NewManager(store Store, live LiveConfig, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		live:         live,
		broadcaster:  NewLocalBroadcaster(),
		key:          HistoryKey(),
		maxSnapshots: vars.MaxHistorySnapshots,
		history:      EmptyHistory(),
		log:          logx.WithContext(context.Background()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Broadcaster 变更通知
func (m *Manager) Broadcaster() Broadcaster { return m.broadcaster }

// MaxSnapshots 容量上限
func (m *Manager) MaxSnapshots() int { return m.maxSnapshots }

// Load 首次使用前从存储加载，重复调用无副作用
func (m *Manager) Load(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.ensureLoaded(ctx)
}

// Reload 丢弃内存状态并重新从存储读取，用于其他实例修改之后
func (m *Manager) Reload(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	m.loaded = false
	m.mu.Unlock()
	return m.ensureLoaded(ctx)
}

func (m *Manager) ensureLoaded(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return nil
	}

	h := EmptyHistory()
	found, err := m.store.Load(ctx, m.key, &h)
	if err != nil {
		m.log.Errorf("加载配置历史失败: key=%s, error=%v", m.key, err)
		return fmt.Errorf("加载配置历史失败: %w", err)
	}
	if !found {
		h = EmptyHistory()
	}
	h = h.normalize(m.maxSnapshots)

	m.mu.Lock()
	m.history = h
	m.loaded = true
	m.mu.Unlock()

	m.log.Infof("配置历史已加载: snapshots=%d, currentIndex=%d", h.Len(), h.CurrentIndex)
	return nil
}

func (m *Manager) save(ctx context.Context, h History) error {
	if err := m.store.Save(ctx, m.key, h); err != nil {
		m.log.Errorf("保存配置历史失败: key=%s, error=%v", m.key, err)
		return fmt.Errorf("保存配置历史失败: %w", err)
	}
	return nil
}

// commit 持久化成功后才替换内存状态
func (m *Manager) commit(ctx context.Context, next History, event Event) error {
	return m.commitApplying(ctx, History{}, next, nil, event)
}

// commitApplying 先持久化历史，再把 cfg 应用为当前配置
// 应用失败时把已持久化的历史写回 prev，内存状态保持不变；两步都成功后才整体替换并通知。
func (m *Manager) commitApplying(ctx context.Context, prev, next History, cfg *cfgtypes.DashboardConfig, event Event) error {
	if err := m.save(ctx, next); err != nil {
		return err
	}

	if cfg != nil {
		if err := m.live.Apply(ctx, cfg.DeepCopy()); err != nil {
			m.log.Errorf("应用快照配置失败，回滚配置历史: type=%s, error=%v", event.Type, err)
			if rerr := m.save(ctx, prev); rerr != nil {
				m.log.Errorf("回滚配置历史失败: key=%s, error=%v", m.key, rerr)
			}
			return fmt.Errorf("应用快照配置失败: %w", err)
		}
	}

	m.mu.Lock()
	m.history = next
	m.mu.Unlock()

	event.CurrentIndex = next.CurrentIndex
	event.Length = next.Len()
	event.Timestamp = time.Now().UnixMilli()
	if err := m.broadcaster.Publish(ctx, event); err != nil {
		m.log.Errorf("发布历史事件失败: type=%s, error=%v", event.Type, err)
	}
	return nil
}

func (m *Manager) snapshotState() History {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history
}

// CreateSnapshot 记录当前配置
// 丢弃指针之后的重做分支，追加新快照并移动指针，超出容量时从最旧的一端淘汰。
func (m *Manager) CreateSnapshot(ctx context.Context, changeType ChangeType, label string) (Snapshot, error) {
	return m.appendSnapshot(ctx, changeType, label, nil)
}

// RecordEdit 以 cfg 创建快照并将其应用为当前配置
// 历史先落盘，配置应用失败时历史回滚，不会出现无法撤销的编辑。
func (m *Manager) RecordEdit(ctx context.Context, changeType ChangeType, label string, cfg cfgtypes.DashboardConfig) (Snapshot, error) {
	return m.appendSnapshot(ctx, changeType, label, &cfg)
}

func (m *Manager) appendSnapshot(ctx context.Context, changeType ChangeType, label string, cfg *cfgtypes.DashboardConfig) (Snapshot, error) {
	if !changeType.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidChangeType, changeType)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return Snapshot{}, err
	}

	var payload cfgtypes.DashboardConfig
	if cfg != nil {
		payload = cfg.DeepCopy()
	} else {
		payload = m.live.Current().DeepCopy()
	}
	snap := Snapshot{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UnixMilli(),
		ChangeType: changeType,
		Label:      label,
		Config:     payload,
	}

	cur := m.snapshotState()
	keep := cur.CurrentIndex + 1
	snaps := make([]Snapshot, 0, keep+1)
	snaps = append(snaps, cur.Snapshots[:keep]...)
	snaps = append(snaps, snap)

	if len(snaps) > m.maxSnapshots {
		evicted := len(snaps) - m.maxSnapshots
		snaps = snaps[evicted:]
		m.log.Infof("配置历史超出容量，淘汰最旧快照: evicted=%d, max=%d", evicted, m.maxSnapshots)
	}
	next := History{Snapshots: snaps, CurrentIndex: len(snaps) - 1}

	if err := m.commitApplying(ctx, cur, next, cfg, Event{Type: EventSnapshot, SnapshotID: snap.ID}); err != nil {
		return Snapshot{}, err
	}

	m.log.Infof("创建配置快照: id=%s, changeType=%s, currentIndex=%d", snap.ID, changeType, next.CurrentIndex)
	return snap.DeepCopy(), nil
}

// Undo 指针后退一步，返回的快照由调用方应用为当前配置
func (m *Manager) Undo(ctx context.Context) (Result, error) {
	return m.step(ctx, -1, EventUndo, false)
}

// Redo 指针前进一步
func (m *Manager) Redo(ctx context.Context) (Result, error) {
	return m.step(ctx, 1, EventRedo, false)
}

// ApplyUndo 后退一步并把快照应用为当前配置，应用失败时指针不动
func (m *Manager) ApplyUndo(ctx context.Context) (Result, error) {
	return m.step(ctx, -1, EventUndo, true)
}

// ApplyRedo 前进一步并应用快照
func (m *Manager) ApplyRedo(ctx context.Context) (Result, error) {
	return m.step(ctx, 1, EventRedo, true)
}

func (m *Manager) step(ctx context.Context, delta int, eventType EventType, apply bool) (Result, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return Result{}, err
	}

	cur := m.snapshotState()
	target := cur.CurrentIndex + delta
	if cur.Len() == 0 || target < 0 || target >= cur.Len() {
		return Result{Success: false}, nil
	}

	next := History{Snapshots: cur.Snapshots, CurrentIndex: target}
	snap := next.Snapshots[target]
	var cfg *cfgtypes.DashboardConfig
	if apply {
		cfg = &snap.Config
	}
	if err := m.commitApplying(ctx, cur, next, cfg, Event{Type: eventType, SnapshotID: snap.ID}); err != nil {
		return Result{}, err
	}

	out := snap.DeepCopy()
	return Result{Success: true, Snapshot: &out}, nil
}

// RestoreFromSnapshot 应用指定快照为当前配置并移动指针，不产生新快照
func (m *Manager) RestoreFromSnapshot(ctx context.Context, id string) (Result, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return Result{}, err
	}

	cur := m.snapshotState()
	idx := cur.IndexOf(id)
	if idx < 0 {
		return Result{Success: false}, fmt.Errorf("%w: id=%s", ErrSnapshotNotFound, id)
	}

	snap := cur.Snapshots[idx]
	next := History{Snapshots: cur.Snapshots, CurrentIndex: idx}
	if err := m.commitApplying(ctx, cur, next, &snap.Config, Event{Type: EventRestore, SnapshotID: id}); err != nil {
		m.log.Errorf("恢复配置快照失败: id=%s, error=%v", id, err)
		return Result{}, err
	}

	m.log.Infof("已恢复配置快照: id=%s, currentIndex=%d", id, idx)
	out := snap.DeepCopy()
	return Result{Success: true, Snapshot: &out}, nil
}

// DeleteSnapshot 删除快照
// 删除指针之前的快照时指针随之前移；删除当前快照时指针移到最近的前驱（没有前驱则为新的第一个），
// 并把该快照应用为当前配置；历史被删空时指针为 -1，当前配置保持不变。
func (m *Manager) DeleteSnapshot(ctx context.Context, id string) (Result, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return Result{}, err
	}

	cur := m.snapshotState()
	idx := cur.IndexOf(id)
	if idx < 0 {
		return Result{Success: false}, fmt.Errorf("%w: id=%s", ErrSnapshotNotFound, id)
	}

	snaps := make([]Snapshot, 0, cur.Len()-1)
	snaps = append(snaps, cur.Snapshots[:idx]...)
	snaps = append(snaps, cur.Snapshots[idx+1:]...)

	pointer := cur.CurrentIndex
	switch {
	case idx < cur.CurrentIndex:
		pointer--
	case idx == cur.CurrentIndex:
		pointer = idx - 1
		if pointer < 0 && len(snaps) > 0 {
			pointer = 0
		}
	}
	if len(snaps) == 0 {
		pointer = -1
	}
	next := History{Snapshots: snaps, CurrentIndex: pointer}

	result := Result{Success: true}
	var cfg *cfgtypes.DashboardConfig
	if idx == cur.CurrentIndex && pointer >= 0 {
		target := snaps[pointer]
		cfg = &target.Config
		out := target.DeepCopy()
		result.Snapshot = &out
	}

	if err := m.commitApplying(ctx, cur, next, cfg, Event{Type: EventDelete, SnapshotID: id}); err != nil {
		m.log.Errorf("删除配置快照失败: id=%s, error=%v", id, err)
		return Result{}, err
	}

	m.log.Infof("已删除配置快照: id=%s, currentIndex=%d, remaining=%d", id, pointer, len(snaps))
	return result, nil
}

// ClearHistory 清空历史，当前配置不受影响
func (m *Manager) ClearHistory(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return err
	}

	if err := m.commit(ctx, EmptyHistory(), Event{Type: EventClear}); err != nil {
		return err
	}
	m.log.Info("配置历史已清空")
	return nil
}

// History 当前历史的深拷贝
func (m *Manager) History() History {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.DeepCopy()
}

// CanUndo 是否可以撤销
func (m *Manager) CanUndo() bool {
	h := m.snapshotState()
	return h.CurrentIndex > 0
}

// CanRedo 是否可以重做
func (m *Manager) CanRedo() bool {
	h := m.snapshotState()
	return h.Len() > 0 && h.CurrentIndex < h.Len()-1
}
