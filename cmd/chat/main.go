package main

import "github.com/sanusharma-ui/chat/internal/cli"

func main() {
	cli.Execute()
}
