package main

import (
	"os"

	"github.com/ZanzyTHEbar/filegroup/fgrp/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
