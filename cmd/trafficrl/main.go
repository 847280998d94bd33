// Command trafficrl trains and evaluates deep Q-learning traffic signal
// controllers on a simulated intersection
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
