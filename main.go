package main

import "github.com/Yates-Labs/kural/cmd"

func main() {
	cmd.Execute()
}
