package server

import (
	"bytes"
	"errors"
	"sync"

	"github.com/oarkflow/xid"

	"github.com/xirelogy/go-mumei"
)

var (
	errUnknownSession  = errors.New("unknown session")
	errTooManySessions = errors.New("session limit reached")
)

type session struct {
	mu   sync.Mutex
	repl *mumei.Session
	out  bytes.Buffer
}

// eval runs src and returns the result with whatever the script printed.
// Output is returned even when evaluation fails part way.
func (s *session) eval(src string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Reset()
	result, err := s.repl.Eval(src)
	return result, s.out.String(), err
}

func (s *session) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repl.Names()
}

type sessions struct {
	mu    sync.Mutex
	limit int
	items map[string]*session
}

func newSessions(limit int) *sessions {
	return &sessions{limit: limit, items: make(map[string]*session)}
}

func (m *sessions) open(engine *mumei.Engine) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) >= m.limit {
		return "", errTooManySessions
	}
	sess := &session{}
	repl, err := engine.NewSession(&sess.out)
	if err != nil {
		return "", err
	}
	sess.repl = repl
	id := xid.New().String()
	m.items[id] = sess
	return id, nil
}

func (m *sessions) get(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.items[id]
	if !ok {
		return nil, errUnknownSession
	}
	return sess, nil
}

func (m *sessions) close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return errUnknownSession
	}
	delete(m.items, id)
	return nil
}

func (m *sessions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
