package main

import (
	"os"

	"github.com/podlab/secretsbp.go/cmd/lib/secretsdemo"
)

func main() {
	os.Exit(secretsdemo.Run())
}
