package main

import "github.com/recipeserver/cloudcmd/cmd"

func main() {
	cmd.Execute()
}
