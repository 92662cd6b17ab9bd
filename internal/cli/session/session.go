// Package session хранит текущую сессию CLI и оповещает подписчиков о её смене.
package session

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Session — текущий пользователь CLI. Пустой UserID означает анонимную сессию.
type Session struct {
	UserID string
	Login  string
	Token  string
}

// Anonymous возвращает пустую сессию.
func Anonymous() Session { return Session{} }

// Authenticated reports whether the session carries an identity and a token.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.Token != ""
}

// Persister сохраняет сессию между запусками CLI.
type Persister interface {
	SaveSession(Session) error
	LoadSession() (Session, error)
	Clear() error
}

type listener struct {
	fn func(Session)
}

// Store — хранилище сессии с подпиской на изменения.
type Store struct {
	mu        sync.Mutex
	current   Session
	persist   Persister
	listeners []*listener
	logger    *zap.SugaredLogger
}

// NewStore поднимает сохранённую сессию. Ошибка чтения означает анонимную сессию.
// persist может быть nil, тогда сессия живёт только в памяти.
func NewStore(persist Persister, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Store{persist: persist, logger: logger}
	if persist != nil {
		sess, err := persist.LoadSession()
		if err != nil {
			logger.Debugw("no stored session", "error", err)
		} else if sess.Authenticated() {
			s.current = sess
		}
	}
	return s
}

// Current returns the current session.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange регистрирует callback, вызываемый после каждой смены сессии.
// Возвращённая функция снимает подписку.
func (s *Store) OnChange(fn func(Session)) (cancel func()) {
	l := &listener{fn: fn}
	s.mu.Lock()
	next := slices.Clone(s.listeners)
	s.listeners = append(next, l)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := slices.Index(s.listeners, l)
		if i < 0 {
			return
		}
		next := slices.Clone(s.listeners)
		s.listeners = slices.Delete(next, i, i+1)
	}
}

// SignIn сохраняет и активирует сессию.
func (s *Store) SignIn(sess Session) error {
	if s.persist != nil {
		if err := s.persist.SaveSession(sess); err != nil {
			return err
		}
	}
	s.set(sess)
	return nil
}

// SignOut очищает сохранённую сессию и переводит стор в анонимный режим.
func (s *Store) SignOut() error {
	var err error
	if s.persist != nil {
		err = s.persist.Clear()
	}
	s.set(Anonymous())
	return err
}

func (s *Store) set(sess Session) {
	s.mu.Lock()
	if s.current == sess {
		s.mu.Unlock()
		return
	}
	s.current = sess
	listeners := s.listeners
	s.mu.Unlock()

	// callbacks вызываются без блокировки, список копируется при изменении
	for _, l := range listeners {
		l.fn(sess)
	}
}
