// Package main serves the HBNB states API on top of the configured storage engine.
package main

import "github.com/hbnb/hbnb/internal"

func main() {
	internal.Run()
}
