// Command hashpw produces the Argon2id hash expected in
// CLIPVAULT_ADMIN_PASSWORD_HASH. The password is read from the first
// argument, or from stdin when no argument is given.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/security"
)

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "reading password:", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if strings.TrimSpace(password) == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}

	var passwordCfg config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &passwordCfg); err != nil {
		fmt.Fprintln(os.Stderr, "loading argon parameters:", err)
		os.Exit(1)
	}

	hash, err := security.HashPassword(password, passwordCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashing password:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
