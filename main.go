package main

import "github.com/frahmantamala/orgfinance/cmd"

func main() {
	cmd.Execute()
}
