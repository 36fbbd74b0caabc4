package main

import (
	"os"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
