// Command apqhash prints the persisted query hash of a GraphQL document and
// the extensions object a client sends with it.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tinnou/router/internal/apq"
	"github.com/tinnou/router/internal/core/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: apqhash <query-file | ->\nPrints the SHA-256 persisted query hash of a GraphQL document")
	}

	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	// Editors add a trailing newline; clients hash the document without it.
	query := strings.TrimRight(string(raw), "\r\n")
	if query == "" {
		return fmt.Errorf("query is empty")
	}

	hash := apq.HashOf(query)
	ext, err := json.Marshal(map[string]any{
		domain.PersistedQueryExtensionKey: domain.PersistedQuery{
			Version:    apq.SupportedVersion,
			SHA256Hash: hash,
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "SHA-256 Hash: %s\n", hash)
	fmt.Fprintln(stdout, "\nSend with:")
	fmt.Fprintf(stdout, "  \"extensions\": %s\n", ext)
	return nil
}
