//go:build windows

package main

import (
	"os"
)

// terminationSignals stop the hub gracefully. Only Ctrl+C is delivered on Windows.
var terminationSignals = []os.Signal{os.Interrupt}
