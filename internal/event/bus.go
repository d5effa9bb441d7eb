package event

import (
	"sync"
	"time"

	"github.com/dushixiang/leverquest/internal/metrics"
	"go.uber.org/zap"
)

const DefaultBuffer = 64

// Bus 类型化的发布/订阅总线。发布不阻塞，订阅者缓冲区满时丢弃该事件
type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscription 一个订阅，从 C 读取事件
type Subscription struct {
	C <-chan Event

	id       uint64
	bus      *Bus
	ch       chan Event
	patterns []string
	once     sync.Once
}

// Subscribe patterns 为空时订阅全部主题
func (b *Bus) Subscribe(buffer int, patterns ...string) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		C:        ch,
		id:       b.nextID,
		bus:      b,
		ch:       ch,
		patterns: patterns,
	}
	if b.closed {
		close(ch)
		return s
	}
	b.subs[s.id] = s
	return s
}

func (s *Subscription) matches(topic Topic) bool {
	for _, p := range s.patterns {
		if Match(p, topic) {
			return true
		}
	}
	return false
}

// Close 取消订阅并关闭 C，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.bus
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[s.id]; ok {
			delete(b.subs, s.id)
			close(s.ch)
		}
	})
}

// Publish 投递给所有匹配的订阅者，返回成功投递的数量
func (b *Bus) Publish(topic Topic, payload interface{}) int {
	e := Event{
		Topic:   topic,
		Payload: payload,
		At:      time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}

	metrics.EventsPublished.WithLabelValues(string(topic)).Inc()
	delivered := 0
	for _, s := range b.subs {
		if !s.matches(topic) {
			continue
		}
		select {
		case s.ch <- e:
			delivered++
		default:
			metrics.EventsDropped.WithLabelValues(string(topic)).Inc()
			b.logger.Debug("event dropped for slow subscriber",
				zap.String("topic", string(topic)),
				zap.Uint64("subscription", s.id),
			)
		}
	}
	return delivered
}

// Close 关闭总线以及所有订阅
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}
