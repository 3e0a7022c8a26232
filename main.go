package main

import (
	"github.com/dstack/feedback-pipeline/cmd"
)

func main() {
	cmd.Execute()
}
