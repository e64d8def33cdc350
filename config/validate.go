package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *AppConfig) Validate() error {
	hasLogin := c.Account.Email != "" && c.Account.Password != ""
	if !hasLogin && c.Account.SID == "" {
		return errors.New("account requires email+password or sid")
	}
	if c.Account.Email != "" && c.Account.Password == "" {
		return errors.New("account.password is required with account.email")
	}

	if c.Socket.MaxReconnects < 0 {
		return errors.New("socket.max_reconnects must be >= 0")
	}
	if c.Socket.BackoffBase > c.Socket.BackoffMax {
		return errors.New("socket.backoff_base must not exceed socket.backoff_max")
	}

	for class := range c.Proxies {
		if !validProxyClass(class) {
			return fmt.Errorf("unknown proxy scheme class %q", class)
		}
	}

	if c.Recorder.Enabled {
		if err := c.Recorder.Database.validate("recorder.database"); err != nil {
			return err
		}
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
	}

	return nil
}

func validProxyClass(class string) bool {
	class = strings.TrimSuffix(class, "://")
	switch class {
	case "all", "http", "https", "wss", "socks5":
		return true
	}
	return false
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must not exceed max_conns", prefix)
	}
	return nil
}
