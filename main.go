package main

import "golang-switchport/cmd"

func main() {
	cmd.Execute()
}
