package main

import (
	"fmt"
	"os"

	"liquidvote/internal/app/bootstrap"
)

func main() {
	app, err := bootstrap.BuildAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap api: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Close()
	}()

	if err := app.Run(); err != nil {
		app.Logger.Error("http server stopped",
			"event", "http_server_stopped",
			"module", "cmd/api",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}
