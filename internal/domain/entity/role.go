package entity

// Role es el documento de rol.
type Role struct {
	Document

	Name             string `json:"Name"`
	NormalizedName   string `json:"NormalizedName"`
	ConcurrencyStamp string `json:"ConcurrencyStamp,omitempty"`
}

func (*Role) PartitionKey() string { return KindRole }

// NewRole crea un rol con id y stamp nuevos.
func NewRole(name string) *Role {
	return &Role{
		Document:         Document{ID: NewID()},
		Name:             name,
		NormalizedName:   Normalize(name),
		ConcurrencyStamp: NewID(),
	}
}
