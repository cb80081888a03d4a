package repository

import "errors"

var (
	// ErrNotFound indica que el documento solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (id duplicado en la misma partición).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreconditionFailed indica fallo de control de concurrencia optimista (If-Match).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrNoDatabase indica que la base de datos o el container no fueron aprovisionados.
	ErrNoDatabase = errors.New("no database configured")

	// ErrThrottled indica que el store rechazó la operación por exceso de requests.
	ErrThrottled = errors.New("throttled")

	// ErrUnavailable indica que el store no está disponible (ej: sin leader en el cluster).
	ErrUnavailable = errors.New("store unavailable")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPreconditionFailed verifica si el error es ErrPreconditionFailed.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}
