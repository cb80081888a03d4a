package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - STORAGE
// =================================================================================

// Kind crea un campo para el discriminador de tipo de entidad.
func Kind(v string) zap.Field {
	return zap.String("kind", v)
}

// EntityID crea un campo para el id de documento.
func EntityID(v string) zap.Field {
	return zap.String("entity_id", v)
}

// PartitionKey crea un campo para la partition key resuelta.
func PartitionKey(v string) zap.Field {
	return zap.String("partition_key", v)
}

// Database crea un campo para el id de base.
func Database(v string) zap.Field {
	return zap.String("database", v)
}

// Container crea un campo para el id de container.
func Container(v string) zap.Field {
	return zap.String("container", v)
}

// Adapter crea un campo para el nombre del adapter del document store.
func Adapter(v string) zap.Field {
	return zap.String("adapter", v)
}

// Status crea un campo para el status code devuelto por el store.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Attempt crea un campo para el número de intento en un reintento.
func Attempt(v int) zap.Field {
	return zap.Int("attempt", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - IDENTIDAD
// =================================================================================

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// RoleID crea un campo para el ID del rol.
func RoleID(v string) zap.Field {
	return zap.String("role_id", v)
}

// RoleName crea un campo para el nombre normalizado del rol.
func RoleName(v string) zap.Field {
	return zap.String("role", v)
}

// Step crea un campo para el paso de una operación en cascada.
func Step(v string) zap.Field {
	return zap.String("step", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
