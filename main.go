package main

import (
	"github.com/spursup/feedserver/cmd"
)

func main() {
	cmd.Execute()
}
