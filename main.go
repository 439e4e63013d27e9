package main

import "github.com/jjudge-oj/usersvc/cmd"

func main() {
	cmd.Execute()
}
