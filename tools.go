//go:build tools

// Package tools pins the code generators used by go:generate.
package docbridge

import (
	_ "go.uber.org/mock/mockgen"
)
