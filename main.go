package main

import (
	"vod-packager/app"
	"vod-packager/pkg/observability"
)

func main() {
	observability.StartProfiling("vod-packager")
	app.Run()
}
