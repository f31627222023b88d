package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"http": map[string]interface{}{
			"addr": ":8080",
		},
		"database": map[string]interface{}{
			"dsn": "nudge_notify.db",
		},
		"auth": map[string]interface{}{
			"jwt_secret": "",
		},
		"scan": map[string]interface{}{
			"secret":            "",
			"interval_seconds":  60,
			"lookahead_seconds": 60,
		},
		"fcm": map[string]interface{}{
			"credentials_file": "",
		},
		"log": map[string]interface{}{
			"level": "info",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
