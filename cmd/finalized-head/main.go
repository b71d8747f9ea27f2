package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.Errorf("failed to execute finalized-head: %v", err)
		os.Exit(1)
	}
}
