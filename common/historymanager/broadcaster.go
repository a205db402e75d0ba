package historymanager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	red "github.com/redis/go-redis/v9"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/threading"
)

// EventType 历史变更事件类型
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventUndo     EventType = "undo"
	EventRedo     EventType = "redo"
	EventRestore  EventType = "restore"
	EventDelete   EventType = "delete"
	EventClear    EventType = "clear"
)

// Event 历史变更通知
type Event struct {
	Type         EventType `json:"type"`
	SnapshotID   string    `json:"snapshotId,omitempty"`
	CurrentIndex int       `json:"currentIndex"`
	Length       int       `json:"length"`
	Timestamp    int64     `json:"timestamp"`
	Source       string    `json:"source"` // 发布实例标识
}

// Broadcaster 历史变更通知
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe 订阅本进程内的事件，返回取消函数
	Subscribe(buffer int) (<-chan Event, func())
}

// LocalBroadcaster 进程内广播，订阅者处理过慢时丢弃事件而不阻塞发布方
type LocalBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	source string
}

// NewLocalBroadcaster 创建进程内广播
func NewLocalBroadcaster() *LocalBroadcaster {
	return &LocalBroadcaster{
		subs:   make(map[chan Event]struct{}),
		source: "board-" + uuid.NewString(),
	}
}

// InstanceID 当前实例标识
func (b *LocalBroadcaster) InstanceID() string { return b.source }

func (b *LocalBroadcaster) Publish(ctx context.Context, event Event) error {
	if event.Source == "" {
		event.Source = b.source
	}
	b.fanout(event)
	return nil
}

func (b *LocalBroadcaster) fanout(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			logx.Errorf("历史事件订阅者缓冲区已满，丢弃事件: type=%s, snapshot=%s", event.Type, event.SnapshotID)
		}
	}
}

func (b *LocalBroadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// RedisBroadcaster 跨实例广播
// 通过 go-zero Redis 发布，原生客户端订阅；收到其他实例的事件后先本地分发，再回调 onRemote。
type RedisBroadcaster struct {
	*LocalBroadcaster

	rds     *redis.Redis
	rdb     red.UniversalClient
	channel string

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
	log     logx.Logger
}

// HistoryChannel 历史事件频道
func HistoryChannel() string {
	return vars.DashboardKeyPrefix + ":" + vars.HistoryChannelSuffix
}

// NewRedisBroadcaster 创建跨实例广播，rds 用于发布，订阅使用同地址的原生客户端
func NewRedisBroadcaster(rds *redis.Redis) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	var rdb red.UniversalClient
	if rds.Type == redis.ClusterType {
		rdb = red.NewClusterClient(&red.ClusterOptions{
			Addrs:    splitHosts(rds.Addr),
			Username: rds.User,
			Password: rds.Pass,
		})
	} else {
		rdb = red.NewClient(&red.Options{
			Addr:     rds.Addr,
			Username: rds.User,
			Password: rds.Pass,
		})
	}

	return &RedisBroadcaster{
		LocalBroadcaster: NewLocalBroadcaster(),
		rds:              rds,
		rdb:              rdb,
		channel:          HistoryChannel(),
		ctx:              ctx,
		cancel:           cancel,
		done:             make(chan struct{}),
		log:              logx.WithContext(ctx),
	}
}

func splitHosts(host string) []string {
	parts := strings.Split(host, ",")
	out := make([]string, 0, len(parts))
	for _, h := range parts {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Publish 本地分发后发布到 Redis 频道
func (b *RedisBroadcaster) Publish(ctx context.Context, event Event) error {
	event.Source = b.source
	b.fanout(event)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化历史事件失败: %w", err)
	}
	if _, err := b.rds.PublishCtx(ctx, b.channel, string(data)); err != nil {
		return fmt.Errorf("发布历史事件失败: channel=%s, %w", b.channel, err)
	}
	return nil
}

// Start 订阅 Redis 频道，订阅建立后返回
func (b *RedisBroadcaster) Start(onRemote func(ctx context.Context, event Event)) error {
	pubsub := b.rdb.Subscribe(b.ctx, b.channel)
	if _, err := pubsub.Receive(b.ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("订阅历史事件频道失败: channel=%s, %w", b.channel, err)
	}

	b.started.Store(true)
	threading.GoSafe(func() {
		defer close(b.done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-b.ctx.Done():
				b.log.Infof("历史事件订阅退出: instance=%s", b.source)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handleMessage(msg.Payload, onRemote)
			}
		}
	})

	b.log.Infof("开始订阅历史事件: channel=%s, instance=%s", b.channel, b.source)
	return nil
}

func (b *RedisBroadcaster) handleMessage(payload string, onRemote func(ctx context.Context, event Event)) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.log.Errorf("解析历史事件失败: %v", err)
		return
	}
	// 忽略自己发布的事件
	if event.Source == b.source {
		return
	}

	b.log.Infof("收到其他实例的历史事件: type=%s, from=%s", event.Type, event.Source)
	if onRemote != nil {
		onRemote(b.ctx, event)
	}
	b.fanout(event)
}

// Close 停止订阅并关闭原生客户端
func (b *RedisBroadcaster) Close() {
	b.cancel()
	if b.started.Load() {
		<-b.done
	}
	if err := b.rdb.Close(); err != nil {
		b.log.Errorf("关闭 Redis 订阅客户端失败: %v", err)
	}
}
