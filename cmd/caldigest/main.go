package main

import "github.com/theakshaypant/caldigest/cmd/caldigest/cmd"

func main() {
	cmd.Execute()
}
