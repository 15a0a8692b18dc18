package main

import "github.com/uilabs-dev/selfheal/pkg/cli"

func main() {
	cli.Execute()
}
