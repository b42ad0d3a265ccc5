package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunarbyte/kafkad"
)

func main() {
	var (
		addr   = flag.String("addr", "127.0.0.1:9092", "address to listen on")
		logDir = flag.String("log-dir", "/tmp/kraft-combined-logs", "base directory of the cluster and topic logs")
		debug  = flag.Bool("debug", false, "log every request and response")
	)
	flag.Parse()

	kafkad.Logger = log.New(os.Stdout, "[kafkad] ", log.LstdFlags)
	if *debug {
		kafkad.DebugLogger = log.New(os.Stdout, "[kafkad/debug] ", log.LstdFlags)
	}

	conf := kafkad.NewConfig()
	conf.Addr = *addr
	conf.ClusterLogDir = *logDir

	broker, err := kafkad.NewBroker(conf)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		if err := broker.Close(); err != nil {
			kafkad.Logger.Printf("shutdown: %v\n", err)
		}
	}()

	if err := broker.ListenAndServe(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
