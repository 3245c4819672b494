package main

import "previewd/cmd"

func main() {
	cmd.Execute()
}
