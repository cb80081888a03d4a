package entity

// LoginInfo identifica un login externo.
type LoginInfo struct {
	LoginProvider       string `json:"loginProvider"`
	ProviderKey         string `json:"providerKey"`
	ProviderDisplayName string `json:"providerDisplayName,omitempty"`
}

// UserLogin vincula un login externo (provider, key) a un usuario.
// El id es sintético; la identidad real es el par (LoginProvider, ProviderKey).
type UserLogin struct {
	Document

	UserID              string `json:"UserId"`
	LoginProvider       string `json:"LoginProvider"`
	ProviderKey         string `json:"ProviderKey"`
	ProviderDisplayName string `json:"ProviderDisplayName,omitempty"`
}

func (*UserLogin) PartitionKey() string { return KindUserLogin }

// NewUserLogin crea el vínculo con un id GUID nuevo.
func NewUserLogin(userID string, info LoginInfo) *UserLogin {
	return &UserLogin{
		Document:            Document{ID: NewID()},
		UserID:              userID,
		LoginProvider:       info.LoginProvider,
		ProviderKey:         info.ProviderKey,
		ProviderDisplayName: info.ProviderDisplayName,
	}
}

// ToLoginInfo convierte el documento a LoginInfo.
func (ul *UserLogin) ToLoginInfo() LoginInfo {
	return LoginInfo{LoginProvider: ul.LoginProvider, ProviderKey: ul.ProviderKey, ProviderDisplayName: ul.ProviderDisplayName}
}

// UserRole es el vínculo usuario-rol.
type UserRole struct {
	Document

	UserID string `json:"UserId"`
	RoleID string `json:"RoleId"`
}

func (*UserRole) PartitionKey() string { return KindUserRole }

// NewUserRole crea el vínculo con un id GUID nuevo.
func NewUserRole(userID, roleID string) *UserRole {
	return &UserRole{Document: Document{ID: NewID()}, UserID: userID, RoleID: roleID}
}

// UserToken es un token de autenticación del usuario, identificado por
// (UserId, LoginProvider, Name).
type UserToken struct {
	Document

	UserID        string `json:"UserId"`
	LoginProvider string `json:"LoginProvider"`
	Name          string `json:"Name"`
	Value         string `json:"Value"`
}

func (*UserToken) PartitionKey() string { return KindUserToken }

// NewUserToken crea el token con un id GUID nuevo.
func NewUserToken(userID, loginProvider, name, value string) *UserToken {
	return &UserToken{Document: Document{ID: NewID()}, UserID: userID, LoginProvider: loginProvider, Name: name, Value: value}
}
