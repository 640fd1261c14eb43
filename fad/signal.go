package fad

import (
	"context"
	"log"
	"os"
	"os/signal"
)

// SetupSignalHandler cancels the context on the first interrupt so long
// scans can stop cleanly.
func SetupSignalHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()
}
