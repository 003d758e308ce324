package main

import "github.com/pathshala-dev/coding-agent-session-search/cmd"

func main() {
	cmd.Execute()
}
