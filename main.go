package main

import "github.com/notargets/gmshtranslate/cmd"

func main() {
	cmd.Execute()
}
