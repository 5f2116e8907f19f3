package main

import (
	"log"
	"os"

	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
