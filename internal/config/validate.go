package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are present and consistent.
func (c *ConsoleConfig) Validate() error {
	var errs []string

	if c.Sync.URL == "" {
		errs = append(errs, "sync.url is required")
	} else if !strings.HasPrefix(c.Sync.URL, "ws://") && !strings.HasPrefix(c.Sync.URL, "wss://") {
		errs = append(errs, "sync.url must use ws:// or wss://")
	}
	if c.Sync.Token == "" {
		errs = append(errs, "sync.token is required")
	}
	if c.Sync.StoreID <= 0 {
		errs = append(errs, "sync.store_id must be positive")
	}

	if c.Connection.ReconnectBaseDelay <= 0 {
		errs = append(errs, "connection.reconnect_base_delay must be positive")
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectBaseDelay {
		errs = append(errs, "connection.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if c.Connection.BufferSize <= 0 {
		errs = append(errs, "connection.buffer_size must be positive")
	}

	if c.Journal.Enabled {
		errs = append(errs, c.Journal.Database.validate("journal.database")...)
		if c.Journal.BatchSize <= 0 {
			errs = append(errs, "journal.batch_size must be positive")
		}
		if c.Journal.FlushInterval <= 0 {
			errs = append(errs, "journal.flush_interval must be positive")
		}
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		errs = append(errs, "health.port must be a valid port number")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (db *DBConfig) validate(prefix string) []string {
	var errs []string
	if db.Host == "" {
		errs = append(errs, fmt.Sprintf("%s.host is required", prefix))
	}
	if db.Name == "" {
		errs = append(errs, fmt.Sprintf("%s.name is required", prefix))
	}
	if db.User == "" {
		errs = append(errs, fmt.Sprintf("%s.user is required", prefix))
	}
	if db.Port <= 0 || db.Port > 65535 {
		errs = append(errs, fmt.Sprintf("%s.port must be a valid port number", prefix))
	}
	return errs
}
