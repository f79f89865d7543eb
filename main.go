package main

import "github.com/txemi/immich-autotag-sub000/cmd"

func main() {
	cmd.Execute()
}
