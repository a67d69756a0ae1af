package main

import (
	"github.com/evcc-io/ownerportal/cmd"
)

func main() {
	cmd.Execute()
}
