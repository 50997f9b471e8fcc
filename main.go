package main

import "github.com/khanhnv2901/endpoint-analyzer/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
