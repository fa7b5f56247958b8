package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CrashDir receives crash reports written by RecoverWithCrashFile
var CrashDir = "./logs"

// InstallCrashHandler sets the crash report directory and makes sure it exists.
// Pair it with a deferred RecoverWithCrashFile in main.
func InstallCrashHandler(dir string) {
	if dir != "" {
		CrashDir = dir
	}
	if err := os.MkdirAll(CrashDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot create %s: %v\n", CrashDir, err)
	}
}

// WriteCrashFile writes the panic value, the panicking stack and every goroutine's stack
// to crash-<timestamp>.log and returns its path. Empty when the file could not be written.
func WriteCrashFile(panicVal any, stack string) string {
	now := time.Now()
	path := filepath.Join(CrashDir, fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var report bytes.Buffer
	fmt.Fprintf(&report, "narro crash report\n")
	fmt.Fprintf(&report, "time:    %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&report, "version: %s\n", GetFullVersion())
	fmt.Fprintf(&report, "runtime: %s/%s %s, %d goroutines\n\n", runtime.GOOS, runtime.GOARCH, runtime.Version(), runtime.NumGoroutine())
	fmt.Fprintf(&report, "panic: %v\n\n%s\n", panicVal, stack)
	report.WriteString("goroutines:\n")
	report.WriteString(allStacks())

	if err := os.WriteFile(path, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot write %s: %v\n%s", path, err, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\nfatal: %v (crash report: %s)\n", panicVal, path)
	return path
}

// RecoverWithCrashFile is deferred at the top of main
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		buf := make([]byte, 8192)
		n := runtime.Stack(buf, false)
		WriteCrashFile(r, string(buf[:n]))
		os.Exit(2)
	}
}

func allStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= 16*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
