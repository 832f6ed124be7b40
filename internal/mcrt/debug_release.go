//go:build !debug
// +build !debug

package mcrt

func DebugLog(format string, args ...interface{})     {}
func DebugLogOnce(format string, args ...interface{}) {}
