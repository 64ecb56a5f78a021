package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"p9e.in/borelog/config"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	// Connect runs migrations, including the unique version index
	config.Connect()

	log.Println("Borelog engine schema is ready")
}
