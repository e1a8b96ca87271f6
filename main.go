package main

import (
	"github.com/foomo/sitemaps/cmd"
)

func main() {
	cmd.Execute()
}
