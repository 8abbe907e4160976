package main

import "questlog/cmd/ql/root"

func main() {
	root.Execute()
}
