// Package logger builds the emulator log.
package logger

import (
	"log"
	"os"
)

// New returns a logger writing to stdout, or appending to the file at path.
func New(path string) *log.Logger {
	if len(path) == 0 {
		return log.New(os.Stdout, "BOOT ", log.Ldate|log.Ltime|log.Lshortfile)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		log.Fatal(err)
	}
	l := log.New(f, "BOOT ", log.Ldate|log.Ltime|log.Lshortfile)
	l.Printf("Initializing %s", path)
	return l
}
