package main

import "github.com/shouni/go-keiba-exact/cmd"

func main() {
	cmd.Execute()
}
