//go:build tools

package main

// Build-time tool dependencies, pinned via go.mod.
import (
	_ "github.com/dmarkham/enumer"
)
