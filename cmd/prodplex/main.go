package main

import "prodplex.app/relay/cmd/prodplex/cli"

func main() {
	cli.Execute()
}
