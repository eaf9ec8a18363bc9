// Package main provides the rt-transcribe CLI.
//
// Usage:
//
//	rt-transcribe [flags]
//
// Streams a local audio file or live microphone input to the Shunyalabs
// realtime transcription service and prints the transcript as it arrives,
// either as plain styled lines or as a live terminal UI (--tui).
//
// Configuration:
//
//	SHUNYALABS_API_KEY and SHUNYALABS_RT_URL are read from the environment;
//	a .env file in the working directory is loaded if present.
package main

import (
	"fmt"
	"os"

	"github.com/shunyalabs/rt-go/cmd/rt-transcribe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
