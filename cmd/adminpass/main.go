// Command adminpass prints an Argon2id hash for AASTA_ADMIN_PASSWORD_HASH.
//
//	adminpass -password 's3cret'
//	echo 's3cret' | adminpass
//	adminpass -generate 24
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aasta/aasta-backend/pkg/config"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "adminpass", Output: os.Stderr})

	_ = godotenv.Load()

	password := flag.String("password", "", "password to hash; read from stdin when empty")
	generate := flag.Int("generate", 0, "generate a random password of this length and hash it")
	flag.Parse()

	cfg, err := config.LoadPassword()
	if err != nil {
		logg.Error(ctx, "failed to load password config", err)
		os.Exit(1)
	}

	plain := *password
	switch {
	case *generate > 0:
		plain, err = security.GeneratePassword(*generate)
		if err != nil {
			logg.Error(ctx, "failed to generate password", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "generated password:", plain)
	case plain == "":
		line, readErr := bufio.NewReader(os.Stdin).ReadString('\n')
		if readErr != nil && line == "" {
			logg.Error(ctx, "failed to read password from stdin", readErr)
			os.Exit(1)
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	hash, err := security.HashPassword(plain, cfg)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
