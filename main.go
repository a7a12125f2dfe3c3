package main

import "github.com/naka-gawa/jira-stats/cmd"

func main() {
	cmd.Execute()
}
