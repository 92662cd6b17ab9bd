package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"ShoeKeeper/internal/cli/session"
)

// AuthFSStore — файловое хранилище сессии CLI: токен, логин и id пользователя.
// TokenFile задаёт путь к файлу токена, остальные файлы лежат рядом с ним.
// Пустой TokenFile означает <UserConfigDir>/ShoeKeeper/auth_token.
type AuthFSStore struct {
	TokenFile string
}

var _ session.Persister = AuthFSStore{}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ShoeKeeper"), nil
}

func (s AuthFSStore) tokenPath() (string, error) {
	p := s.TokenFile
	if p == "" {
		dir, err := configDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(dir, "auth_token")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func (s AuthFSStore) siblingPath(name string) (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), name), nil
}

func writeValue(p, v string) error {
	return os.WriteFile(p, []byte(v), 0o600)
}

// readValue читает файл и обрезает завершающие пробелы и переводы строк.
func readValue(p, what string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), " \t\r\n")
	if v == "" {
		return "", errors.New("empty " + what + " file")
	}
	return v, nil
}

// SaveToken сохраняет auth‑токен в файл.
func (s AuthFSStore) SaveToken(token string) error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	return writeValue(p, token)
}

// LoadToken читает auth‑токен из файла.
func (s AuthFSStore) LoadToken() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return readValue(p, "token")
}

// SaveLogin сохраняет логин пользователя в файл.
func (s AuthFSStore) SaveLogin(login string) error {
	if login == "" {
		return errors.New("empty login")
	}
	p, err := s.siblingPath("last_login")
	if err != nil {
		return err
	}
	return writeValue(p, login)
}

// LoadLogin читает логин пользователя из файла.
func (s AuthFSStore) LoadLogin() (string, error) {
	p, err := s.siblingPath("last_login")
	if err != nil {
		return "", err
	}
	return readValue(p, "login")
}

// SaveSession сохраняет все поля сессии.
func (s AuthFSStore) SaveSession(sess session.Session) error {
	if sess.UserID == "" {
		return errors.New("empty user id")
	}
	if err := s.SaveToken(sess.Token); err != nil {
		return err
	}
	if err := s.SaveLogin(sess.Login); err != nil {
		return err
	}
	p, err := s.siblingPath("user_id")
	if err != nil {
		return err
	}
	return writeValue(p, sess.UserID)
}

// LoadSession восстанавливает сессию. Отсутствие любого из файлов — ошибка.
func (s AuthFSStore) LoadSession() (session.Session, error) {
	token, err := s.LoadToken()
	if err != nil {
		return session.Anonymous(), err
	}
	login, err := s.LoadLogin()
	if err != nil {
		return session.Anonymous(), err
	}
	p, err := s.siblingPath("user_id")
	if err != nil {
		return session.Anonymous(), err
	}
	id, err := readValue(p, "user id")
	if err != nil {
		return session.Anonymous(), err
	}
	return session.Session{UserID: id, Login: login, Token: token}, nil
}

// Clear удаляет файлы сессии. Отсутствующие файлы не считаются ошибкой.
func (s AuthFSStore) Clear() error {
	tp, err := s.tokenPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(tp)
	for _, p := range []string{tp, filepath.Join(dir, "last_login"), filepath.Join(dir, "user_id")} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
