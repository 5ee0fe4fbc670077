package main

import (
	"os"

	"github.com/romariotrain/transcode-worker/internal/app"
)

func main() {
	code := app.Run("transcoder", run)
	os.Exit(code)
}
