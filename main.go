// surimi is a mock WebSocket/HTTP server for tests.
//
// To run a standalone server from a YAML config:
//
//	go run github.com/surimi/surimi [config]
//
// For in-process use, see the "mock" package, below.
package main

import (
	"github.com/surimi/surimi/serve"
)

func main() {
	serve.Main()
}
