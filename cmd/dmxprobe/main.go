package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"cuedeck/dmx"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "send":
		sendOne()
	case "blackout":
		blackout()
	case "ramp":
		ramp()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("DMX Interface Probe")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                           - List serial ports")
	fmt.Println("  send <port> <channel> <value>  - Send one frame with a single channel set")
	fmt.Println("  blackout <port>                - Send one all-zero frame")
	fmt.Println("  ramp <port> <channel>          - Sweep a channel 0-255-0 at frame rate")
	fmt.Println("")
	fmt.Println("Channels are 1-512, values 0-255.")
}

func listPorts() {
	ports, err := dmx.ListPorts()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}

	fmt.Println("=== Serial Ports ===")
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p.Path)
		if p.USB {
			fmt.Printf("     USB %s:%s", p.VID, p.PID)
			if p.Product != "" {
				fmt.Printf("  %s", p.Product)
			}
			if p.SerialNumber != "" {
				fmt.Printf("  serial %s", p.SerialNumber)
			}
			fmt.Println()
		}
	}
}

func sendOne() {
	if len(os.Args) < 5 {
		usage()
		return
	}
	port := os.Args[2]
	channel, ok := parseChannel(os.Args[3])
	if !ok {
		return
	}
	value, err := strconv.Atoi(os.Args[4])
	if err != nil || value < 0 || value > 255 {
		fmt.Printf("Bad value %q (want 0-255)\n", os.Args[4])
		return
	}

	levels := dmx.NewLevels()
	levels.Set(channel-1, value)

	if err := oneShot(port, levels); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Sent channel %d = %d on %s\n", channel, value, port)
}

func blackout() {
	if len(os.Args) < 3 {
		usage()
		return
	}
	port := os.Args[2]

	if err := oneShot(port, dmx.NewLevels()); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Sent blackout on %s\n", port)
}

// oneShot runs the transmit loop just long enough for a single frame.
func oneShot(port string, levels *dmx.Levels) error {
	tx := dmx.NewTransmitter(levels)
	tx.Start()
	defer tx.Stop()
	tx.SelectPort(port)

	err := tx.SendNow()

	// give the loop a moment to drain before the process exits
	time.Sleep(100 * time.Millisecond)
	return err
}

func ramp() {
	if len(os.Args) < 4 {
		usage()
		return
	}
	port := os.Args[2]
	channel, ok := parseChannel(os.Args[3])
	if !ok {
		return
	}

	levels := dmx.NewLevels()
	tx := dmx.NewTransmitter(levels)
	tx.Debounce = 0
	tx.Start()
	defer tx.Stop()
	tx.SelectPort(port)

	fmt.Printf("Ramping channel %d on %s (0 -> 255 -> 0)...\n", channel, port)
	fmt.Println("Ctrl+C to stop.")

	for v := 0; v <= 255; v += 5 {
		if !rampStep(tx, levels, channel, v) {
			return
		}
	}
	for v := 255; v >= 0; v -= 5 {
		if !rampStep(tx, levels, channel, v) {
			return
		}
	}

	time.Sleep(100 * time.Millisecond)
	fmt.Println("Done!")
}

// rampStep publishes one value and paces the sweep at the wire's
// frame rate, reporting any transmit failure.
func rampStep(tx *dmx.Transmitter, levels *dmx.Levels, channel, value int) bool {
	levels.Set(channel-1, value)
	time.Sleep(25 * time.Millisecond)

	if st := tx.Status(); st.State == dmx.StateError {
		fmt.Printf("Error: %s\n", st.LastError)
		return false
	}
	return true
}

func parseChannel(arg string) (int, bool) {
	channel, err := strconv.Atoi(arg)
	if err != nil || channel < 1 || channel > dmx.ChannelCount {
		fmt.Printf("Bad channel %q (want 1-%d)\n", arg, dmx.ChannelCount)
		return 0, false
	}
	return channel, true
}
