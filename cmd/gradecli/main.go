package main

import (
	"log"
	"os"

	"gradebook/internal/client"
	"gradebook/internal/config"
	"gradebook/internal/render"
)

func main() {
	logger := log.New(os.Stderr, "GRADECLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		logger.Fatal(err)
	}

	api := client.New(conf.Client.BaseURL, conf.Client.Timeout, client.WithRetries(conf.Client.Retries))
	out := &deferredRenderer{text: render.NewTextRenderer(os.Stdout, os.Stderr)}
	cli := commandLine{
		api:  api,
		ctrl: client.NewController(api, out),
		out:  out,
	}
	if err := cli.run(os.Args); err != nil {
		os.Exit(1)
	}
}
