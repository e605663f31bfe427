package main

import (
	"os"

	"github.com/mycelian/mycelian-journal/journalservice"
)

func main() {
	if err := journalservice.Run(); err != nil {
		os.Exit(1)
	}
}
