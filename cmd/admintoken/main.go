// Command admintoken prints a bearer token for the admin API, signed with ADMIN_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"

	"linechat/internal/configs"
	"linechat/internal/pkg/auth/jwt"
)

func main() {
	operator := flag.String("operator", "admin", "name recorded in the token and in kick logs")
	ttl := flag.Duration("ttl", jwt.AdminTokenExpiration, "token lifetime")
	flag.Parse()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.GenerateToken(&jwt.Payload{Operator: *operator, Role: jwt.RoleAdmin}, cfg.AdminSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
