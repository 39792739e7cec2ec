package main

import (
	"os"

	"evhandler/internal/evbench"
)

func main() {
	os.Exit(evbench.MainWithArgs(os.Args[1:]))
}
