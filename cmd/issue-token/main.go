package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/konkoor/konkoor-backend/internal/config"
	"github.com/konkoor/konkoor-backend/internal/service"
	"golang.org/x/term"
)

// issue-token signs a JWT with the shared secret so the API can be exercised
// without the external login service.
func main() {
	var (
		userID       int64
		role         string
		promptSecret bool
	)
	flag.Int64Var(&userID, "user", 0, "User ID to embed in the token")
	flag.StringVar(&role, "role", string(service.RoleStudent), "Role: student, admin or assistant")
	flag.BoolVar(&promptSecret, "prompt-secret", false, "Read the signing secret from the terminal instead of JWT_SECRET")
	flag.Parse()

	cfg := config.Load()

	if userID <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -user must be a positive ID")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if promptSecret {
		fmt.Fprint(os.Stderr, "Enter JWT secret: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading secret: %v\n", err)
			os.Exit(1)
		}
		if len(secret) == 0 {
			fmt.Fprintln(os.Stderr, "Error: secret is empty")
			os.Exit(1)
		}
		cfg.JWTSecret = string(secret)
	}

	token, err := service.NewAuthService(cfg).IssueToken(userID, service.Role(role), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
