// Package repository define los errores de dominio compartidos por el
// document store, el storage provider y los repositorios por entidad.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│        identity (UserStore / RoleStore)             │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   store (Users, Roles, UserClaims, ...)             │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   storage.Provider (partition key + Result)         │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┬─────────────┐
//	         ▼              ▼              ▼             ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────┐  ┌─────────┐
//	│   memory    │  │     fs      │  │   pg    │  │  redis  │ ...
//	└─────────────┘  └─────────────┘  └─────────┘  └─────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los status codes del store se traducen a estos errores vía errors.Is
package repository
