package main

import "github.com/airraman/focuslog/cmd"

func main() {
	cmd.Execute()
}
