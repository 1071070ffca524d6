package services

import (
	"sync"
	"time"

	"github.com/GrainArc/DropMap/models"
)

// viewSession 单个会话的状态及其锁
type viewSession struct {
	mu      sync.Mutex
	state   models.ViewState
	touched time.Time
}

// SessionStore 按会话 ID 保存 ViewState。
// 同一会话的处理串行执行，不同会话互不影响。
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*viewSession
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore 创建会话存储，闲置超过 ttl 的会话被丢弃
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*viewSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) session(id string) *viewSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, sess := range s.sessions {
		if key == id || now.Sub(sess.touched) < s.ttl {
			continue
		}
		if sess.mu.TryLock() {
			delete(s.sessions, key)
			sess.mu.Unlock()
		}
	}

	sess, ok := s.sessions[id]
	if !ok || now.Sub(sess.touched) >= s.ttl {
		sess = &viewSession{state: models.NewViewState()}
		s.sessions[id] = sess
	}
	sess.touched = now
	return sess
}

// Load 读取会话状态副本，未知会话返回默认值
func (s *SessionStore) Load(id string) models.ViewState {
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone()
}

// Save 覆盖会话状态
func (s *SessionStore) Save(id string, state models.ViewState) {
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = state.Clone()
}

// Update 在会话锁内执行 fn 并保存其返回的新状态
func (s *SessionStore) Update(id string, fn func(models.ViewState) models.ViewState) models.ViewState {
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = fn(sess.state.Clone()).Clone()
	return sess.state.Clone()
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
