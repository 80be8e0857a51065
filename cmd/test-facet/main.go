// Command test-facet is a manual test for the TimeFlip link.
// It connects, authenticates, reads the current facet once and disconnects.
// Nothing is written to the activity log.
//
// Usage:
//
//	go run ./cmd/test-facet --address <addr> [--password 000000]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/timeflip-logger/internal/ble"
	"github.com/chaz8081/timeflip-logger/internal/facet"
	"github.com/chaz8081/timeflip-logger/internal/session"
)

// discard satisfies session.Recorder for a probe that records nothing.
type discard struct{}

func (discard) SetSession(string)                        {}
func (discard) OnIntervalStart(string, time.Time) error { return nil }
func (discard) OnFacetChanged(string, time.Time) error  { return nil }
func (discard) OnIntervalEnd(time.Time) error           { return nil }

func main() {
	address := flag.String("address", "", "Bluetooth address of TimeFlip device")
	password := flag.String("password", "000000", "password for TimeFlip device")
	timeout := flag.Duration("timeout", 30*time.Second, "connect timeout")
	flag.Parse()

	if *address == "" {
		fmt.Println("Error: --address is required")
		os.Exit(2)
	}

	opts := session.DefaultOptions()
	opts.Address = *address
	opts.Password = *password
	opts.ConnectTimeout = *timeout

	mgr, err := session.NewManager(ble.NewTinyGoAdapter(), facet.Default(), discard{}, opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connecting to %s...\n", *address)
	id, activity, err := mgr.Probe(context.Background())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if activity == "" {
		activity = "(unassigned)"
	}
	fmt.Printf("Facet %d: %s\n", id, activity)
	fmt.Println("\nDone!")
}
