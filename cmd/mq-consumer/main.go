package main

import (
	"github.com/architeacher/svc-mq-factory/internal/runtime"
)

func main() {
	runtime.NewConsumer().Run()
}
