package configmanager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/utils"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
)

// LiveConfigKey 当前配置的存储键
func LiveConfigKey() string {
	return vars.DashboardKeyPrefix + ":" + vars.LiveConfigKeySuffix
}

// Manager 当前仪表盘配置的唯一写入方
// 每次编辑：加编辑锁 -> 深拷贝 -> 修改 -> 快照落盘 -> 配置落盘并替换。
type Manager struct {
	store   historymanager.Store
	key     string
	history *historymanager.Manager

	// 串行化编辑与历史导航
	editMu sync.Mutex

	mu     sync.RWMutex
	cfg    types.DashboardConfig
	loaded bool

	log logx.Logger
}

// liveConfig 供历史管理器回写配置，不获取编辑锁（调用方已持有）
type liveConfig struct {
	m *Manager
}

func (l liveConfig) Current() types.DashboardConfig { return l.m.Current() }

func (l liveConfig) Apply(ctx context.Context, cfg types.DashboardConfig) error {
	return l.m.replace(ctx, cfg)
}

// NewManager 创建配置管理器，历史与配置使用同一个存储
func NewManager(store historymanager.Store, opts ...historymanager.Option) *Manager {
	m := &Manager{
		store: store,
		key:   LiveConfigKey(),
		cfg:   types.NewDashboardConfig(),
		log:   logx.WithContext(context.Background()),
	}
	m.history = historymanager.NewManager(store, liveConfig{m: m}, opts...)
	return m
}

// History 历史管理器
func (m *Manager) History() *historymanager.Manager { return m.history }

// Load 加载当前配置与历史，历史为空时记录一个初始快照
func (m *Manager) Load(ctx context.Context) error {
	m.editMu.Lock()
	defer m.editMu.Unlock()

	if err := m.loadConfig(ctx); err != nil {
		return err
	}
	if err := m.history.Load(ctx); err != nil {
		return err
	}
	return m.ensureBaseline(ctx)
}

// Reload 重新读取配置与历史，用于其他实例变更之后
func (m *Manager) Reload(ctx context.Context) error {
	m.editMu.Lock()
	defer m.editMu.Unlock()

	m.mu.Lock()
	m.loaded = false
	m.mu.Unlock()

	if err := m.loadConfig(ctx); err != nil {
		return err
	}
	return m.history.Reload(ctx)
}

func (m *Manager) ensureBaseline(ctx context.Context) error {
	if m.history.History().Len() > 0 {
		return nil
	}
	if _, err := m.history.CreateSnapshot(ctx, historymanager.ChangeManual, "初始配置"); err != nil {
		return fmt.Errorf("创建初始快照失败: %w", err)
	}
	return nil
}

func (m *Manager) loadConfig(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return nil
	}

	cfg := types.NewDashboardConfig()
	found, err := m.store.Load(ctx, m.key, &cfg)
	if err != nil {
		m.log.Errorf("加载仪表盘配置失败: key=%s, error=%v", m.key, err)
		return fmt.Errorf("加载仪表盘配置失败: %w", err)
	}
	if !found {
		cfg = types.NewDashboardConfig()
	}

	m.mu.Lock()
	m.cfg = cfg.DeepCopy()
	m.loaded = true
	m.mu.Unlock()

	m.log.Infof("仪表盘配置已加载: pages=%d, queries=%d", len(cfg.Pages), cfg.Queries.Len())
	return nil
}

// Current 当前配置的深拷贝
func (m *Manager) Current() types.DashboardConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.DeepCopy()
}

// Apply 替换当前配置，不产生快照
func (m *Manager) Apply(ctx context.Context, cfg types.DashboardConfig) error {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.replace(ctx, cfg)
}

// replace 持久化成功后整体替换
func (m *Manager) replace(ctx context.Context, cfg types.DashboardConfig) error {
	next := cfg.DeepCopy()
	if err := m.store.Save(ctx, m.key, next); err != nil {
		m.log.Errorf("保存仪表盘配置失败: key=%s, error=%v", m.key, err)
		return fmt.Errorf("保存仪表盘配置失败: %w", err)
	}

	m.mu.Lock()
	m.cfg = next
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// edit 执行一次编辑并记录快照
func (m *Manager) edit(ctx context.Context, changeType historymanager.ChangeType, label string, mutate func(cfg *types.DashboardConfig) error) (types.DashboardConfig, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()

	if err := m.loadConfig(ctx); err != nil {
		return types.DashboardConfig{}, err
	}

	next := m.Current()
	if err := mutate(&next); err != nil {
		return types.DashboardConfig{}, err
	}
	// 快照与配置一起提交，任一步失败都不留下部分状态
	if _, err := m.history.RecordEdit(ctx, changeType, label, next); err != nil {
		return types.DashboardConfig{}, err
	}

	m.log.Infof("仪表盘配置已修改: changeType=%s, label=%s", changeType, label)
	return next.DeepCopy(), nil
}

// SaveQuery 保存用户查询，名称必须带版本后缀
func (m *Manager) SaveQuery(ctx context.Context, namespace, name, template string) (types.DashboardConfig, error) {
	namespace = strings.TrimSpace(namespace)
	name = strings.TrimSpace(name)
	if err := utils.ValidateNamespace(namespace); err != nil {
		return types.DashboardConfig{}, err
	}
	if err := utils.ValidateQueryName(name); err != nil {
		return types.DashboardConfig{}, err
	}
	if strings.TrimSpace(template) == "" {
		return types.DashboardConfig{}, fmt.Errorf("%w: 查询模板不能为空", ErrInvalidConfig)
	}

	return m.edit(ctx, historymanager.ChangeQueryEdit, "保存查询 "+namespace+"."+name, func(cfg *types.DashboardConfig) error {
		cfg.Queries.Set(namespace, name, template)
		return nil
	})
}

// DeleteQuery 删除用户查询，同名内置查询随之恢复可见
func (m *Manager) DeleteQuery(ctx context.Context, namespace, name string) (types.DashboardConfig, error) {
	return m.edit(ctx, historymanager.ChangeQueryEdit, "删除查询 "+namespace+"."+name, func(cfg *types.DashboardConfig) error {
		if !cfg.Queries.Delete(namespace, name) {
			return fmt.Errorf("%w: %s.%s", querymanager.ErrQueryNotFound, namespace, name)
		}
		return nil
	})
}

// SaveQueueQuery 保存用户队列查询，保存前做结构校验
func (m *Manager) SaveQueueQuery(ctx context.Context, namespace, name string, query qtypes.QueueQuery) (types.DashboardConfig, error) {
	namespace = strings.TrimSpace(namespace)
	name = strings.TrimSpace(name)
	if err := utils.ValidateNamespace(namespace); err != nil {
		return types.DashboardConfig{}, err
	}
	if err := utils.ValidateNamespace(name); err != nil {
		return types.DashboardConfig{}, err
	}
	normalized, err := queuemanager.NormalizeQueueQuery(query)
	if err != nil {
		return types.DashboardConfig{}, err
	}

	return m.edit(ctx, historymanager.ChangeQueryEdit, "保存队列查询 "+namespace+"."+name, func(cfg *types.DashboardConfig) error {
		cfg.QueueQueries.Set(namespace, name, normalized)
		return nil
	})
}

// DeleteQueueQuery 删除用户队列查询
func (m *Manager) DeleteQueueQuery(ctx context.Context, namespace, name string) (types.DashboardConfig, error) {
	return m.edit(ctx, historymanager.ChangeQueryEdit, "删除队列查询 "+namespace+"."+name, func(cfg *types.DashboardConfig) error {
		if !cfg.QueueQueries.Delete(namespace, name) {
			return fmt.Errorf("%w: %s.%s.%s", querymanager.ErrQueryNotFound, queuemanager.QueueReferencePrefix, namespace, name)
		}
		return nil
	})
}

// AddPage 添加页面，未指定 ID 时自动生成
func (m *Manager) AddPage(ctx context.Context, page types.Page) (types.DashboardConfig, error) {
	page = page.DeepCopy()
	if page.ID == "" {
		page.ID = uuid.NewString()
	}
	for _, w := range page.Widgets {
		if err := validateWidget(w); err != nil {
			return types.DashboardConfig{}, err
		}
	}

	return m.edit(ctx, historymanager.ChangePageAdd, "添加页面 "+page.Title, func(cfg *types.DashboardConfig) error {
		if cfg.FindPage(page.ID) >= 0 {
			return fmt.Errorf("%w: id=%s", ErrPageExists, page.ID)
		}
		cfg.Pages = append(cfg.Pages, page)
		return nil
	})
}

// RemovePage 删除页面
func (m *Manager) RemovePage(ctx context.Context, pageID string) (types.DashboardConfig, error) {
	return m.edit(ctx, historymanager.ChangePageRemove, "删除页面 "+pageID, func(cfg *types.DashboardConfig) error {
		idx := cfg.FindPage(pageID)
		if idx < 0 {
			return fmt.Errorf("%w: id=%s", ErrPageNotFound, pageID)
		}
		cfg.Pages = append(cfg.Pages[:idx], cfg.Pages[idx+1:]...)
		return nil
	})
}

// UpsertWidget 新增或替换组件
func (m *Manager) UpsertWidget(ctx context.Context, pageID string, widget types.Widget) (types.DashboardConfig, error) {
	widget = widget.DeepCopy()
	if widget.ID == "" {
		widget.ID = uuid.NewString()
	}
	if err := validateWidget(widget); err != nil {
		return types.DashboardConfig{}, err
	}

	return m.edit(ctx, historymanager.ChangeLayoutEdit, "编辑组件 "+widget.Title, func(cfg *types.DashboardConfig) error {
		pi := cfg.FindPage(pageID)
		if pi < 0 {
			return fmt.Errorf("%w: id=%s", ErrPageNotFound, pageID)
		}
		page := &cfg.Pages[pi]
		if wi := page.FindWidget(widget.ID); wi >= 0 {
			page.Widgets[wi] = widget
		} else {
			page.Widgets = append(page.Widgets, widget)
		}
		return nil
	})
}

// MoveWidget 修改组件位置，targetPageID 非空且不同时移动到目标页面
func (m *Manager) MoveWidget(ctx context.Context, pageID, widgetID string, layout types.Layout, targetPageID string) (types.DashboardConfig, error) {
	return m.edit(ctx, historymanager.ChangeLayoutEdit, "移动组件 "+widgetID, func(cfg *types.DashboardConfig) error {
		pi := cfg.FindPage(pageID)
		if pi < 0 {
			return fmt.Errorf("%w: id=%s", ErrPageNotFound, pageID)
		}
		wi := cfg.Pages[pi].FindWidget(widgetID)
		if wi < 0 {
			return fmt.Errorf("%w: page=%s, id=%s", ErrWidgetNotFound, pageID, widgetID)
		}

		widget := cfg.Pages[pi].Widgets[wi]
		widget.Layout = layout

		if targetPageID == "" || targetPageID == pageID {
			cfg.Pages[pi].Widgets[wi] = widget
			return nil
		}

		ti := cfg.FindPage(targetPageID)
		if ti < 0 {
			return fmt.Errorf("%w: id=%s", ErrPageNotFound, targetPageID)
		}
		src := cfg.Pages[pi].Widgets
		cfg.Pages[pi].Widgets = append(src[:wi], src[wi+1:]...)
		cfg.Pages[ti].Widgets = append(cfg.Pages[ti].Widgets, widget)
		return nil
	})
}

// RemoveWidget 删除组件
func (m *Manager) RemoveWidget(ctx context.Context, pageID, widgetID string) (types.DashboardConfig, error) {
	return m.edit(ctx, historymanager.ChangeLayoutEdit, "删除组件 "+widgetID, func(cfg *types.DashboardConfig) error {
		pi := cfg.FindPage(pageID)
		if pi < 0 {
			return fmt.Errorf("%w: id=%s", ErrPageNotFound, pageID)
		}
		wi := cfg.Pages[pi].FindWidget(widgetID)
		if wi < 0 {
			return fmt.Errorf("%w: page=%s, id=%s", ErrWidgetNotFound, pageID, widgetID)
		}
		w := cfg.Pages[pi].Widgets
		cfg.Pages[pi].Widgets = append(w[:wi], w[wi+1:]...)
		return nil
	})
}

// Import 整体导入配置
func (m *Manager) Import(ctx context.Context, incoming types.DashboardConfig, label string) (types.DashboardConfig, error) {
	cfg, err := normalizeImport(incoming)
	if err != nil {
		return types.DashboardConfig{}, err
	}
	if label == "" {
		label = "导入配置"
	}
	return m.edit(ctx, historymanager.ChangeImport, label, func(dst *types.DashboardConfig) error {
		*dst = cfg
		return nil
	})
}

// Snapshot 手动记录快照
func (m *Manager) Snapshot(ctx context.Context, label string) (historymanager.Snapshot, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.CreateSnapshot(ctx, historymanager.ChangeManual, label)
}

// Undo 撤销并应用前一个快照
func (m *Manager) Undo(ctx context.Context) (historymanager.Result, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.ApplyUndo(ctx)
}

// Redo 重做并应用后一个快照
func (m *Manager) Redo(ctx context.Context) (historymanager.Result, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.ApplyRedo(ctx)
}

// Restore 恢复到指定快照
func (m *Manager) Restore(ctx context.Context, snapshotID string) (historymanager.Result, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.RestoreFromSnapshot(ctx, snapshotID)
}

// DeleteSnapshot 删除快照
func (m *Manager) DeleteSnapshot(ctx context.Context, snapshotID string) (historymanager.Result, error) {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.DeleteSnapshot(ctx, snapshotID)
}

// ClearHistory 清空历史
func (m *Manager) ClearHistory(ctx context.Context) error {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	return m.history.ClearHistory(ctx)
}

// Library 内置库与用户库合并后的查询库
func (m *Manager) Library(base querymanager.Catalog) *querymanager.Library {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return querymanager.NewLibrary(base, m.cfg.Queries)
}

// QueueQueryTable 内置与用户队列查询合并后的配置表
func (m *Manager) QueueQueryTable(base querymanager.QueueQueryTable) querymanager.QueueQueryTable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return querymanager.MergeQueueQueries(base, m.cfg.QueueQueries)
}

func validateWidget(w types.Widget) error {
	if w.QueryRef != "" {
		if _, _, err := querymanager.ParseReference(w.QueryRef); err != nil {
			return err
		}
	}
	if w.QueueQueryRef != "" {
		if _, _, err := queuemanager.ParseQueueReference(w.QueueQueryRef); err != nil {
			return err
		}
	}
	if w.Layout.W < 0 || w.Layout.H < 0 || w.Layout.X < 0 || w.Layout.Y < 0 {
		return fmt.Errorf("%w: 组件布局不能为负数: id=%s", ErrInvalidConfig, w.ID)
	}
	return nil
}

// normalizeImport 导入的配置与页面编辑走同样的校验
func normalizeImport(in types.DashboardConfig) (types.DashboardConfig, error) {
	cfg := in.DeepCopy()

	seen := make(map[string]struct{}, len(cfg.Pages))
	for i := range cfg.Pages {
		page := &cfg.Pages[i]
		if page.ID == "" {
			page.ID = uuid.NewString()
		}
		if _, dup := seen[page.ID]; dup {
			return types.DashboardConfig{}, fmt.Errorf("%w: id=%s", ErrPageExists, page.ID)
		}
		seen[page.ID] = struct{}{}

		for j := range page.Widgets {
			if page.Widgets[j].ID == "" {
				page.Widgets[j].ID = uuid.NewString()
			}
			if err := validateWidget(page.Widgets[j]); err != nil {
				return types.DashboardConfig{}, err
			}
		}
	}

	for _, ns := range cfg.Queries.Namespaces() {
		if err := utils.ValidateNamespace(ns); err != nil {
			return types.DashboardConfig{}, err
		}
		for name := range cfg.Queries[ns] {
			if err := utils.ValidateQueryName(name); err != nil {
				return types.DashboardConfig{}, err
			}
		}
	}

	for ns, queries := range cfg.QueueQueries {
		for name, q := range queries {
			normalized, err := queuemanager.NormalizeQueueQuery(q)
			if err != nil {
				return types.DashboardConfig{}, fmt.Errorf("队列查询 %s.%s: %w", ns, name, err)
			}
			queries[name] = normalized
		}
	}
	return cfg, nil
}
