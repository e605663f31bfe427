package main

import (
	"os"

	"github.com/mycelian/mycelian-journal/backfillworker"
)

func main() {
	if err := backfillworker.Run(); err != nil {
		os.Exit(1)
	}
}
