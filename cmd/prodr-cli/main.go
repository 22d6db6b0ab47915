// Command prodr-cli is a thin driver around the prodr engine: it reads
// a CSV file of numeric feature vectors, streams it through Engine.Update
// in fixed-size batches, and reports the resulting micro-cluster
// partition.
package main

import (
	"github.com/jjmmwon/FiReDR/cmd/prodr-cli/cmd"
)

func main() {
	cmd.Execute()
}
