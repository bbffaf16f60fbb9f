package main

import "github.com/aayushmayush07/vault/app/staker/cmd"

func main() {
	cmd.Execute()
}
