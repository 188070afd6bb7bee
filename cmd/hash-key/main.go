package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// hash-key generates the bcrypt hash for SERVICE_KEY_HASH. The key is
// read without echo so it never lands in shell history.
func main() {
	fmt.Print("Enter service API key: ")
	byteKey, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading key")
		os.Exit(1)
	}
	if len(byteKey) < 16 {
		fmt.Fprintln(os.Stderr, "Error: key must be at least 16 characters")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword(byteKey, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error hashing key:", err)
		os.Exit(1)
	}

	fmt.Println("Add to your environment:")
	fmt.Printf("SERVICE_KEY_HASH=%s\n", hash)
}
