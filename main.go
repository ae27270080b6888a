package main

import "nexus-admin-backend/cmd"

func main() {
	cmd.Run()
}
