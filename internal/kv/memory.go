// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package kv

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/tacticalmesh/rrc/internal/config"
)

func makeInMemoryKV(_ context.Context, _ *config.Config) (KV, error) {
	return inMemoryKV{
		kv: xsync.NewMap[string, kvValue](),
	}, nil
}

type kvValue struct {
	value []byte
	ttl   time.Time
}

func (v kvValue) expired() bool {
	return !v.ttl.IsZero() && v.ttl.Before(time.Now())
}

type inMemoryKV struct {
	kv *xsync.Map[string, kvValue]
}

func (kv inMemoryKV) Has(_ context.Context, key string) (bool, error) {
	val, ok := kv.kv.Load(key)
	if !ok {
		return false, nil
	}
	if val.expired() {
		kv.kv.Delete(key)
		return false, nil
	}
	return true, nil
}

func (kv inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := kv.kv.Load(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	if val.expired() {
		kv.kv.Delete(key)
		return nil, fmt.Errorf("key %s has expired", key)
	}
	return val.value, nil
}

func (kv inMemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.kv.Store(key, kvValue{value: value})
	return nil
}

func (kv inMemoryKV) Delete(_ context.Context, key string) error {
	kv.kv.Delete(key)
	return nil
}

func (kv inMemoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	val, ok := kv.kv.Load(key)
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if ttl <= 0 {
		kv.kv.Delete(key)
		return nil
	}
	val.ttl = time.Now().Add(ttl)
	kv.kv.Store(key, val)
	return nil
}

func (kv inMemoryKV) Scan(_ context.Context, _ uint64, match string, _ int64) ([]string, uint64, error) {
	keys := make([]string, 0)
	kv.kv.Range(func(key string, value kvValue) bool {
		if value.expired() {
			kv.kv.Delete(key)
			return true
		}
		globbed, _ := path.Match(match, key)
		if match == "" || match == key || globbed || strings.Contains(key, match) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, 0, nil
}

func (kv inMemoryKV) Close() error {
	return nil
}
