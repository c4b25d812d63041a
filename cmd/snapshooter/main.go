package main

import "github.com/bryanchriswhite/SnapShooter/cmd/snapshooter/commands"

func main() {
	commands.Execute()
}
