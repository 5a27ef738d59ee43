// Command tokenhash generates a bcrypt hash of an admin token for use
// as ADMIN_TOKEN_HASH. The token is prompted without echo.
package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	fmt.Fprint(os.Stderr, "Admin token: ")
	token, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read token: %v\n", err)
		os.Exit(1)
	}
	if len(token) == 0 {
		fmt.Fprintln(os.Stderr, "Error: token must not be empty")
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "Confirm token: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read confirmation: %v\n", err)
		os.Exit(1)
	}
	if string(token) != string(confirm) {
		fmt.Fprintln(os.Stderr, "Error: tokens do not match")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword(token, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: hashing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
	fmt.Fprintln(os.Stderr, "Set this as ADMIN_TOKEN_HASH in the server environment.")
}
