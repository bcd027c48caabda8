// main.go - CLI entry point (spec §4.11). Adapted from the teacher's
// main.go: the same os.Args-length usage check and fmt.Printf+os.Exit(1)
// fatal pattern, with the ASCII-art banner and GUI/audio/video bring-up
// dropped (a headless binary translator has no video, sound, or GUI
// concerns to start).
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: rvemu <elf-file> [guest-args...]")
		os.Exit(1)
	}

	mc := NewMachine()
	mc.LoadProgram(os.Args[1])
	mc.Setup(os.Args[1:])

	tty := NewTTYHost()
	tty.Enable()
	defer tty.Restore()
	onExit = tty.Restore

	mc.Run()
}
