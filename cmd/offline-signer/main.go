package main

import (
	"os"

	"offline-signer/cmd/offline-signer/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
