package main

import "github.com/cometchain/comet/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
