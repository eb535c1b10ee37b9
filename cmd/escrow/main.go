package main

import "github.com/twliu-dorian/zk-agreement-example/internal/cli"

func main() {
	cli.Execute()
}
