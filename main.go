// Package main is entrypoint for the application
package main

import (
	"peerlink/cmd"
)

func main() {
	cmd.Run()
}
