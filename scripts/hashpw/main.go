// Command hashpw produces the bcrypt hash expected by ADMIN_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	var (
		password string
		cost     int
	)

	flag.StringVar(&password, "password", "", "Plaintext admin password to hash")
	flag.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if password == "" {
		log.Fatal("usage: hashpw -password <plaintext> [-cost N]")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	fmt.Println(string(hash))
}
