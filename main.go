package main

import "github.com/scriptdex/scriptdex/cmd"

func main() {
	cmd.Execute()
}
