// Command apitoken prints a bearer token for the JSON API, signed with
// SECRET_KEY and carrying API_PASS.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"bakery/internal/auth"
	"bakery/internal/config"
)

func main() {
	ttl := flag.Duration("ttl", 0, "token lifetime, 0 for no expiry")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	token, err := auth.IssueToken(cfg.SecretKey, cfg.APIPass, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
