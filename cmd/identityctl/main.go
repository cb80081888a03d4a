// Command identityctl administra el store de identidad: aprovisiona el
// document store, siembra usuarios y roles, y sirve la API de lectura.
package main

import (
	"fmt"
	"os"

	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

func main() {
	defer func() { _ = logger.Sync() }()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
