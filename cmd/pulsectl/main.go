package main

import (
	log "log/slog"
	"os"
)

func main() {
	if err := rootApp().Run(os.Args); err != nil {
		log.Error("pulsectl failed", "err", err)
		os.Exit(1)
	}
}
