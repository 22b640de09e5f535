// eval-review - create MLflow review sessions from recent agent traces
package main

import (
	"os"

	"github.com/btbeal-db/agent-eval-request-job/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
