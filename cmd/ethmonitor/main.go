package main

import "github.com/vietddude/ethmonitor/internal/cli"

func main() {
	cli.Execute()
}
