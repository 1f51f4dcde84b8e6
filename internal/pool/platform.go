package pool

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

var supportsParallel = sync.OnceValue(func() bool {
	if runtime.GOOS == "android" || os.Getenv("TERMUX_VERSION") != "" {
		return false
	}
	if runtime.GOOS != "linux" {
		return true
	}
	out, err := exec.Command("uname", "-o").Output()
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(out)) != "Android"
})

// SupportsParallel reports whether a worker pool can run here. Termux on Android cannot
// host one reliably.
func SupportsParallel() bool {
	return supportsParallel()
}
