package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	apiKey := uuid.New().String()
	if len(os.Args) > 1 {
		apiKey = os.Args[1]
	}

	// Use a cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key:      %s\n", apiKey)
	fmt.Printf("API_KEY_HASH: %s\n", string(hash))
	fmt.Println("Put API_KEY_HASH in the server environment and hand the key to the client.")
}
