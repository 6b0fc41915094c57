package main

import (
	"os"

	"github.com/reelfocus/reelfocus/syncservice"
)

func main() {
	if err := syncservice.Run(); err != nil {
		os.Exit(1)
	}
}
