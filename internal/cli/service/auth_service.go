package service

import (
	"context"
	"fmt"

	"ShoeKeeper/internal/cli/session"
)

// Authenticator — серверная часть входа и регистрации.
type Authenticator interface {
	Register(ctx context.Context, login, password string) (session.Session, error)
	Login(ctx context.Context, login, password string) (session.Session, error)
	Status(ctx context.Context) (string, error)
}

// AuthService описывает юзкейс-уровень аутентификации для CLI.
type AuthService struct {
	remote   Authenticator
	sessions *session.Store
}

func NewAuthService(remote Authenticator, sessions *session.Store) *AuthService {
	return &AuthService{remote: remote, sessions: sessions}
}

// Register регистрирует пользователя и сразу делает его текущим.
func (s *AuthService) Register(ctx context.Context, login, password string) (session.Session, error) {
	sess, err := s.remote.Register(ctx, login, password)
	if err != nil {
		return session.Session{}, err
	}
	return sess, s.signIn(sess)
}

// Login логирование пользователя.
func (s *AuthService) Login(ctx context.Context, login, password string) (session.Session, error) {
	sess, err := s.remote.Login(ctx, login, password)
	if err != nil {
		return session.Session{}, err
	}
	return sess, s.signIn(sess)
}

func (s *AuthService) signIn(sess session.Session) error {
	if err := s.sessions.SignIn(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout очищает локальный контекст аутентификации.
func (s *AuthService) Logout() error {
	return s.sessions.SignOut()
}

// CurrentUser возвращает текущую сессию (анонимную, если входа не было).
func (s *AuthService) CurrentUser() session.Session {
	return s.sessions.Current()
}

// ServerStatus спрашивает у сервера, кем он считает текущий токен.
func (s *AuthService) ServerStatus(ctx context.Context) (string, error) {
	return s.remote.Status(ctx)
}
