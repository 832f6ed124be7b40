//go:build debug
// +build debug

package mcrt

import (
	"fmt"
	"sync"
)

func DebugLog(format string, args ...interface{}) {
	fmt.Printf("[DEBUG] "+format+"\n", args...)
}

var debugOnce sync.Once

func DebugLogOnce(format string, args ...interface{}) {
	debugOnce.Do(func() {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	})
}
