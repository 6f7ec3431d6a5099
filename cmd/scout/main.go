package main

import (
	"os"

	"github.com/dustpunk/scout/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
