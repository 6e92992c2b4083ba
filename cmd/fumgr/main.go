package main

import (
	"os"

	"github.com/hnrobert/fumgr/internal/logger"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
