package main

import "github.com/mcoot/leaguetracker/internal/cli"

func main() {
	cli.Execute()
}
