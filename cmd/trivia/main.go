package main

import (
	"os"

	"github.com/gokatarajesh/trivia-quiz/internal/terminal"
)

func main() {
	if err := terminal.Execute(); err != nil {
		os.Exit(1)
	}
}
