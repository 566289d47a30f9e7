/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/pqctscrub/cmd/pqctscrub/cmd"

func main() {
	cmd.Execute()
}
