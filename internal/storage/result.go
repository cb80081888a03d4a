package storage

import (
	"fmt"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

// Result es el resultado uniforme de una escritura.
// Las fallas del store no se propagan como error: quedan en el Result.
type Result struct {
	Succeeded   bool
	StatusCode  int
	Description string
}

// Success retorna un Result exitoso con el status del store.
func Success(code int) Result {
	if code == 0 {
		code = http.StatusOK
	}
	return Result{Succeeded: true, StatusCode: code}
}

// Failed retorna un Result fallido.
func Failed(code int, format string, args ...any) Result {
	return Result{StatusCode: code, Description: fmt.Sprintf(format, args...)}
}

// Err convierte una falla en *docstore.StatusError (nil si tuvo éxito), así
// errors.Is funciona contra los sentinels de repository.
func (r Result) Err() error {
	if r.Succeeded {
		return nil
	}
	return &docstore.StatusError{StatusCode: r.StatusCode, Message: r.Description}
}

func (r Result) String() string {
	if r.Succeeded {
		return fmt.Sprintf("Succeeded (%d)", r.StatusCode)
	}
	return fmt.Sprintf("Failed (%d): %s", r.StatusCode, r.Description)
}
