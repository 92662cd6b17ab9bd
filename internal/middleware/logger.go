package middleware

import "go.uber.org/zap"

var log = zap.NewNop().Sugar()

// SetLogger задаёт логгер для всех middleware пакета.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		log = l
	}
}
