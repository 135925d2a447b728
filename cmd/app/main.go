package main

import "github.com/mradkov043/discite-omnes-app/internal/cli"

func main() {
	cli.Execute()
}
