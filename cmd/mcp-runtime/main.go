// Command mcp-runtime serves the demo capability registry over MCP streaming
// HTTP and inspects the telemetry it publishes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
