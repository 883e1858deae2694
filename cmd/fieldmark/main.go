package main

import (
	"github.com/MeKo-Tech/fieldmark/cmd/fieldmark/cmd"
)

func main() {
	cmd.Execute()
}
