package main

import "staffcore/internal/app/server"

func main() {
	server.Run()
}
