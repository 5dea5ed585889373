package main

import (
	"fmt"
	"os"

	// Date handling is pinned to the school timezone; embed the zone
	// database so deployment images do not need one.
	_ "time/tzdata"

	"schoolbeat/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bulletind: %v\n", err)
		os.Exit(1)
	}
}
