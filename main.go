package main

import (
	"os"

	"github.com/sparkcoach/sparkcoach/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
