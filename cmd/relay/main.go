package main

import "github.com/youmna-rabie/chat-relay/internal/cli"

func main() {
	cli.Execute()
}
