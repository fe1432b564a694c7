package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/hireflow/hireflow/cmd"
)

func main() {
	// Local development keeps DSNs and keys in a .env file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
