package main

import (
	"context"

	"evinventory/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
