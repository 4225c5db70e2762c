package main

import "github.com/vietddude/chainsink/internal/cli"

func main() {
	cli.Execute()
}
