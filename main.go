package main

import "ietool.dev/backend-next/cmd/app"

func main() {
	app.Run()
}
