package main

import "github.com/hamlinzheng/rockchip-example/cmd/camstream/commands"

func main() {
	commands.Execute()
}
