package main

import "github.com/AkashMedishetty/ISSH-2026-sub004/internal/app"

func main() {
	app.Run()
}
