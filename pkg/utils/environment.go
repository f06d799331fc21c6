// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package utils

import "strings"

// Environment identifies the deployment environment.
type Environment string

const (
	PRODUCTION  Environment = "production"
	DEVELOPMENT Environment = "development"
)

func (e Environment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name; anything unrecognized is
// treated as development.
func FromEnvironmentStr(s string) Environment {
	if strings.EqualFold(s, string(PRODUCTION)) {
		return PRODUCTION
	}
	return DEVELOPMENT
}
