package main

import "github.com/Mohsinsiddi/src20kit/cmd"

func main() {
	cmd.Execute()
}
