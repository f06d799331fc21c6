// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package utils

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
