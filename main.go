package main

import (
	"os"

	"BucketPurger/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
