package emergency_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hexhive/teezz-fuzz/pkg/emergency"
)

// Example demonstrates watching for the stop file; nothing creates the file
// here, so the watch times out without a stop.
func Example() {
	controller := emergency.New(emergency.Config{
		StopFile:     "/tmp/teezz-fuzz-stop-test",
		PollInterval: 1 * time.Second,
	})

	os.Remove(controller.StopFilePath())

	controller.OnStop(func() {
		fmt.Println("stop triggered, checkpointing campaign state")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller.Start(ctx)

	fmt.Println("watching for stop file:")
	fmt.Printf("  touch %s\n", controller.StopFilePath())

	select {
	case <-controller.StopChannel():
		fmt.Println("stop detected via channel")
	case <-time.After(3 * time.Second):
		fmt.Println("no stop triggered (timeout)")
	}

	os.Remove(controller.StopFilePath())

	// Output:
	// watching for stop file:
	//   touch /tmp/teezz-fuzz-stop-test
	// no stop triggered (timeout)
}
