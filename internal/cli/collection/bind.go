package collection

import "ShoeKeeper/internal/cli/session"

// Credentials — источник текущей сессии.
type Credentials interface {
	Current() session.Session
	OnChange(func(session.Session)) (cancel func())
}

// Bind подписывает коллекцию на сессию: вход пользователя X ведёт к Subscribe(X),
// выход очищает снимок. Возвращённая функция отвязывает коллекцию и закрывает подписку.
func (c *Collection) Bind(creds Credentials) (stop func()) {
	follow := func(s session.Session) {
		if !s.Authenticated() {
			c.Reset()
			return
		}
		if h := c.Handle(); h != nil && h.Identity() == s.UserID && h.State() != StateError {
			return
		}
		if _, err := c.Subscribe(s.UserID); err != nil {
			c.logger.Errorw("subscribe on session change", "error", err)
		}
	}
	cancel := creds.OnChange(follow)
	follow(creds.Current())

	return func() {
		cancel()
		c.Unsubscribe(c.Handle())
	}
}
