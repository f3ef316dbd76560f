// Package stacktrace trims goroutine stacks down to this module's own frames.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 64

// Internal returns "internal/<pkg>/<file>.go:<line>" entries for the calling
// goroutine, skipping skip frames above the caller.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if p, ok := internalPath(f.File); ok {
			out = append(out, p+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}

	return out
}

func internalPath(file string) (string, bool) {
	idx := strings.Index(file, "/internal/")
	if idx == -1 {
		return "", false
	}
	return file[idx+1:], true
}
