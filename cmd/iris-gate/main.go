// Command iris-gate serves DFIR-IRIS case management as MCP tools.
package main

import "github.com/Sentinel-Gate/irisgate/cmd/iris-gate/cmd"

func main() {
	cmd.Execute()
}
