// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package configs

// PostgresConfig carries the connection settings for the primary relational store.
type PostgresConfig struct {
	Host               string         `mapstructure:"host" validate:"required"`
	Port               int            `mapstructure:"port" validate:"required"`
	DbName             string         `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuth   `mapstructure:"auth" validate:"required"`
	MaxOpenConnection  int            `mapstructure:"max_open_connection"`
	MaxIdealConnection int            `mapstructure:"max_ideal_connection"`
	SslMode            string         `mapstructure:"ssl_mode"`
}

type PostgresAuth struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// RedisConfig carries the connection settings for the dispatch queue / cache.
type RedisConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}
