// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package utils

import (
	"fmt"
	"strings"
)

// Option is a loosely-typed bag of model/provider options keyed by dotted
// paths, e.g. "listen.language". Providers read only the keys they understand.
type Option map[string]interface{}

func (o Option) lookup(key string) (interface{}, bool) {
	if v, ok := o[key]; ok {
		return v, true
	}
	// Walk nested maps for dotted keys.
	parts := strings.Split(key, ".")
	var cur interface{} = map[string]interface{}(o)
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (o Option) GetString(key string) (string, error) {
	v, ok := o.lookup(key)
	if !ok {
		return "", fmt.Errorf("option %q not found", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q is not a string", key)
	}
	return s, nil
}

func (o Option) GetFloat(key string) (float64, error) {
	v, ok := o.lookup(key)
	if !ok {
		return 0, fmt.Errorf("option %q not found", key)
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case int:
		return float64(f), nil
	}
	return 0, fmt.Errorf("option %q is not a number", key)
}

func (o Option) GetBool(key string) (bool, error) {
	v, ok := o.lookup(key)
	if !ok {
		return false, fmt.Errorf("option %q not found", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("option %q is not a bool", key)
	}
	return b, nil
}
