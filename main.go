package main

import "github.com/longkey1/suvidha/cmd"

func main() {
	cmd.Execute()
}
