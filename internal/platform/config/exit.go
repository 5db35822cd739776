package config

import (
	"fmt"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// CLI entry points call it once the command tree has reported its error.
func Exitf(format string, args ...any) {
	ExitCodef(1, format, args...)
}

// ExitCodef is Exitf with an explicit exit status.
func ExitCodef(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
