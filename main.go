package main

import "github.com/pitwall-racing/pitwall/cmd"

func main() {
	cmd.Execute()
}
