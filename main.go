package main

import "patchimport/cmd"

func main() {
	cmd.Execute()
}
