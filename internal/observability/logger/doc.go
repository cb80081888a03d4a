// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada operación puede llevar su logger con campos propios
//     (op, kind, user_id) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En el storage (con contexto):
//
//	logger.From(ctx).Warn("read degraded to empty", logger.Kind(kind), logger.Err(err))
package logger
