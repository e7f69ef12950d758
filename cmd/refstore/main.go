// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/refstore/cmd/refstore/cmd"
)

func main() {
	cmd.Execute()
}
