// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package config reads command defaults from MQCTL_* environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/nxgtw/mqctl/internal/frame"
	"github.com/nxgtw/mqctl/mq"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds defaults for command line flags. Explicit flags override them.
type Config struct {
	MaxMsg    int64  `env:"MQCTL_MAXMSG"    envDefault:"10"`
	MsgSize   int64  `env:"MQCTL_MSGSIZE"   envDefault:"1024"`
	Mode      string `env:"MQCTL_MODE"      envDefault:"0644"`
	Delimiter string `env:"MQCTL_DELIMITER" envDefault:"n"`
	Priority  uint   `env:"MQCTL_PRIORITY"  envDefault:"0"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		MaxMsg:    mq.DefaultMaxMsg,
		MsgSize:   mq.DefaultMsgSize,
		Mode:      "0644",
		Delimiter: frame.Newline.String(),
	}
}

// FromEnv parses the environment and validates the result.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to parse environment")
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that all values are usable as flag defaults.
func (c Config) Validate() error {
	if c.MaxMsg <= 0 {
		return errors.Errorf("MQCTL_MAXMSG must be positive, got %d", c.MaxMsg)
	}
	if c.MsgSize <= 0 {
		return errors.Errorf("MQCTL_MSGSIZE must be positive, got %d", c.MsgSize)
	}
	if _, err := ParseMode(c.Mode); err != nil {
		return errors.Wrap(err, "MQCTL_MODE")
	}
	if _, err := frame.ParseDelimiter(c.Delimiter); err != nil {
		return errors.Wrap(err, "MQCTL_DELIMITER")
	}
	if c.Priority >= mq.MaxPriority {
		return errors.Errorf("MQCTL_PRIORITY must be less than %d, got %d", mq.MaxPriority, c.Priority)
	}
	return nil
}

// ParseMode parses octal permission bits, like 0644 or 600.
func ParseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, errors.Errorf("invalid mode %q", s)
	}
	if v&^0777 != 0 {
		return 0, errors.Errorf("mode %q has bits outside of 0777", s)
	}
	return os.FileMode(v), nil
}
