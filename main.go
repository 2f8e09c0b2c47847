package main

import "github.com/KaramelBytes/pdclinical/cmd"

func main() {
	cmd.Execute()
}
