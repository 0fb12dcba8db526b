package main

import (
	"os"

	"chain-gateway/pkg/logger"
)

func main() {
	c := &ctl{}
	if err := c.newApp().Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}
