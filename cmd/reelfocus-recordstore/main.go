package main

import (
	"os"

	"github.com/reelfocus/reelfocus/recordservice"
)

func main() {
	if err := recordservice.Run(); err != nil {
		os.Exit(1)
	}
}
