package identity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument indica un argumento requerido nil o vacío.
	ErrInvalidArgument = errors.New("identity: invalid argument")

	// ErrRoleNotFound indica que el rol pedido no existe.
	ErrRoleNotFound = errors.New("identity: role does not exist")

	// ErrCascadeIncomplete indica que la escritura principal se hizo pero
	// quedaron documentos dependientes sin borrar o sin actualizar.
	ErrCascadeIncomplete = errors.New("identity: cascade delete incomplete")
)

func argNil(name string) error {
	return fmt.Errorf("%w: %s cannot be nil", ErrInvalidArgument, name)
}

func argEmpty(name string) error {
	return fmt.Errorf("%w: %s cannot be nil or empty", ErrInvalidArgument, name)
}

func roleNotFound(normalizedName string) error {
	return fmt.Errorf("%w: %s", ErrRoleNotFound, normalizedName)
}

// CascadeError detalla los pasos de una cascada (delete, o rename de rol)
// que dejaron documentos sin borrar o sin actualizar.
type CascadeError struct {
	// Op es la operación que disparó la cascada: "delete" o "rename".
	Op string
	// Owner es el id de la entidad borrada o renombrada.
	Owner string
	// Failed cuenta documentos pendientes por paso.
	Failed map[string]int
	// Last es el último error del store observado.
	Last error
}

func (e *CascadeError) Error() string {
	steps := make([]string, 0, len(e.Failed))
	for _, s := range cascadeOrder {
		if n := e.Failed[s]; n > 0 {
			steps = append(steps, fmt.Sprintf("%s=%d", s, n))
		}
	}
	op := e.Op
	if op == "" {
		op = cascadeDelete
	}
	msg := fmt.Sprintf("identity: cascade %s of %s incomplete (%s)", op, e.Owner, strings.Join(steps, ", "))
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *CascadeError) Is(target error) bool { return target == ErrCascadeIncomplete }

func (e *CascadeError) Unwrap() error { return e.Last }
