package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/viewfinder/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "frame-tools-mcp serves raw frame crop and inspection tools over MCP on stdin/stdout.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: frame-tools-mcp [flags]")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Set FRAME_MCP_LOG_LEVEL=debug to log every request to stderr.")
}

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&showVersion, "v", false, "shorthand for -version")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("frame-tools-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	srv := server.New()
	if os.Getenv("FRAME_MCP_LOG_LEVEL") == "debug" {
		log.Printf("Frame MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		srv.SetDebug(true)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
