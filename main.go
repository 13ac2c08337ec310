package main

import "github.com/Norgate-AV/aptrun/cmd"

func main() {
	cmd.Execute()
}
