package stakegov

import (
	"fmt"
	"runtime"
)

// Set by ldflags at build time.
var (
	CurrentVersion = "0.0.1"
	CurrentBranch  = "main"
	CurrentCommit  = ""
	BuildDate      = ""
	Platform       = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	GoVersion      = runtime.Version()
)
