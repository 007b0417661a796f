package main

import (
	"flag"
	"os"

	"github.com/small-frappuccino/hookcast/pkg/app"
	"github.com/small-frappuccino/hookcast/pkg/logging"
)

// main is the entry point of the webhook relay.
func main() {
	envFile := flag.String("env-file", ".env", "optional .env fallback file")
	flag.Parse()

	if err := app.Run(*envFile); err != nil {
		logging.Errorf("Fatal: %v", err)
		os.Exit(1)
	}
}
