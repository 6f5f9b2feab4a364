package main

import "medichat/cmd/server"

func main() {
	server.Run()
}
