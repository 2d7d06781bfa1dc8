package database

import (
	"fmt"
	"net/url"

	"github.com/tillview/livesync/internal/config"
)

// BuildConnString assembles a postgres:// DSN from a database config.
// The password is URL-escaped so special characters survive parsing.
func BuildConnString(cfg config.DBConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.SSLMode,
	)
}
