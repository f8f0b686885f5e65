// Command hashpw prints the bcrypt hash to put in OPERATOR_PASSWORD_HASH. The
// password is read from the first line of stdin.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/itsDrac/gemstone-auction/pkg/utils"
)

func main() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		slog.Error("read password from stdin", "error", err)
		os.Exit(1)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < 8 {
		slog.Error("password must be at least 8 characters")
		os.Exit(1)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		slog.Error("hash password", "error", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
