package config

import (
	badgerstorage "github.com/engram/engram/pkg/storage/badger"
	redisstorage "github.com/engram/engram/pkg/storage/redis"
)

// ToBadgerConfig converts config.BadgerConfig to pkg/storage/badger.Config
func (b *BadgerConfig) ToBadgerConfig() *badgerstorage.Config {
	return &badgerstorage.Config{
		Path:              b.Path,
		SyncWrites:        b.SyncWrites,
		ValueLogFileSize:  b.ValueLogFileSize,
		NumVersionsToKeep: b.NumVersionsToKeep,
	}
}

// ToRedisConfig converts config.RedisConfig to pkg/storage/redis.Config
func (r *RedisConfig) ToRedisConfig() *redisstorage.Config {
	return &redisstorage.Config{
		Addr:         r.Address,
		Password:     r.Password,
		DB:           r.DB,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
	}
}
