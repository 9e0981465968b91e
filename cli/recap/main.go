package main

import (
	"os"

	recapcmder "github.com/recaplabs/recap/cmd/recap"
)

func main() {
	cmd := recapcmder.NewRecapCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
