package main

import (
	"os"

	"github.com/jaliltomas/preciosbot/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
