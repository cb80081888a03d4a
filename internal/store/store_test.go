package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/cache"
	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

func newRepos(t *testing.T, opts ...Option) *Repositories {
	t.Helper()
	ctx := context.Background()
	db, err := memory.New().CreateDatabaseIfNotExists(ctx, "identity")
	require.NoError(t, err)
	c, err := db.CreateContainerIfNotExists(ctx, docstore.ContainerProperties{ID: "identity"})
	require.NoError(t, err)
	return New(storage.NewProvider(storage.SharedContainer(c)), opts...)
}

func mustOK(t *testing.T, res storage.Result) {
	t.Helper()
	require.True(t, res.Succeeded, res.String())
}

func TestUsers_Finders(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	admin := entity.NewRole("Admin")
	u := entity.NewUser("alice")
	u.Email = "Alice@Example.com"
	u.NormalizedEmail = entity.Normalize(u.Email)
	u.AddRole(admin)
	u.AddClaim(entity.Claim{Type: "dept", Value: "eng,ops"})
	mustOK(t, r.Users.Create(ctx, u))
	mustOK(t, r.Users.Create(ctx, entity.NewUser("bob")))

	got := r.Users.FindByName(ctx, "ALICE")
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got = r.Users.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	assert.Nil(t, r.Users.FindByName(ctx, "CAROL"))
	assert.Nil(t, r.Users.FindByID(ctx, "missing"))
	assert.Len(t, r.Users.All(ctx), 2)

	inRole := r.Users.InRole(ctx, admin.ID)
	require.Len(t, inRole, 1)
	assert.Equal(t, u.ID, inRole[0].ID)

	// El separador de lista dentro del valor no produce falsos positivos.
	require.Len(t, r.Users.ForClaim(ctx, entity.Claim{Type: "dept", Value: "eng,ops"}), 1)
	require.Empty(t, r.Users.ForClaim(ctx, entity.Claim{Type: "dept", Value: "eng"}))
}

func TestUsers_Page(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	for _, n := range []string{"a", "b", "c"} {
		mustOK(t, r.Users.Create(ctx, entity.NewUser(n)))
	}

	page, next, err := r.Users.Page(ctx, docstore.Query{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)

	page, next, err = r.Users.Page(ctx, docstore.Query{PageSize: 2, Continuation: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Empty(t, next)
}

func TestRoles_FindByNameWithCache(t *testing.T) {
	ctx := context.Background()
	cc := cache.NewMemory(cache.Config{DefaultTTL: time.Minute})
	r := newRepos(t, WithRoleCache(cc, time.Minute))

	role := entity.NewRole("Admin")
	mustOK(t, r.Roles.Create(ctx, role))

	got := r.Roles.FindByName(ctx, "ADMIN")
	require.NotNil(t, got)
	id, err := cc.Get(ctx, "role:ADMIN")
	require.NoError(t, err)
	assert.Equal(t, role.ID, id)

	// Rename: la entrada vieja queda apuntando a un rol con otro nombre y se
	// descarta al leerla.
	got.Name, got.NormalizedName = "Owner", "OWNER"
	mustOK(t, r.Roles.Update(ctx, got))

	assert.Nil(t, r.Roles.FindByName(ctx, "ADMIN"))
	_, err = cc.Get(ctx, "role:ADMIN")
	require.True(t, cache.IsNotFound(err))
	require.NotNil(t, r.Roles.FindByName(ctx, "OWNER"))
	assert.Len(t, r.Roles.All(ctx), 1)
}

func TestRoles_StaleCacheEntryIsVerified(t *testing.T) {
	ctx := context.Background()
	cc := cache.NewMemory(cache.Config{DefaultTTL: time.Minute})
	r := newRepos(t, WithRoleCache(cc, time.Minute))

	a := entity.NewRole("Admin")
	mustOK(t, r.Roles.Create(ctx, a))
	// Entrada que apunta a otro rol (escrita por otra réplica, por ejemplo).
	b := entity.NewRole("Guest")
	mustOK(t, r.Roles.Create(ctx, b))
	require.NoError(t, cc.Set(ctx, "role:ADMIN", b.ID, time.Minute))

	got := r.Roles.FindByName(ctx, "ADMIN")
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
}

func TestUserClaims(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := entity.NewUser("alice")
	mustOK(t, r.Users.Create(ctx, u))

	c := entity.Claim{Type: "dept", Value: "eng"}
	mustOK(t, r.UserClaims.Create(ctx, entity.NewUserClaim(u.ID, c)))
	mustOK(t, r.UserClaims.Create(ctx, entity.NewUserClaim(u.ID, entity.Claim{Type: "level", Value: "3"})))
	// Vínculo huérfano: su usuario no existe.
	mustOK(t, r.UserClaims.Create(ctx, entity.NewUserClaim("ghost", c)))

	assert.ElementsMatch(t, []entity.Claim{c, {Type: "level", Value: "3"}}, r.UserClaims.GetClaims(ctx, u.ID))
	assert.Len(t, r.UserClaims.Matching(ctx, u.ID, c), 1)

	users := r.UserClaims.GetUsers(ctx, c)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)

	docs, err := r.UserClaims.ScanForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestUserRoles(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	u := entity.NewUser("alice")
	role := entity.NewRole("Admin")
	mustOK(t, r.Users.Create(ctx, u))
	mustOK(t, r.Roles.Create(ctx, role))
	mustOK(t, r.UserRoles.Create(ctx, entity.NewUserRole(u.ID, role.ID)))

	require.NotNil(t, r.UserRoles.Link(ctx, u.ID, role.ID))
	assert.Nil(t, r.UserRoles.Link(ctx, u.ID, "other"))
	assert.Equal(t, []string{"Admin"}, r.UserRoles.GetRoleNames(ctx, u.ID))

	users := r.UserRoles.GetUsers(ctx, role.ID)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)

	links, err := r.UserRoles.ScanForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestUserLoginsAndTokens(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	info := entity.LoginInfo{LoginProvider: "github", ProviderKey: "42", ProviderDisplayName: "GitHub"}
	mustOK(t, r.UserLogins.Create(ctx, entity.NewUserLogin("u1", info)))

	got := r.UserLogins.ByProvider(ctx, "github", "42")
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Nil(t, r.UserLogins.ForUserProvider(ctx, "u2", "github", "42"))
	assert.Equal(t, []entity.LoginInfo{info}, r.UserLogins.GetLogins(ctx, "u1"))

	mustOK(t, r.UserTokens.Create(ctx, entity.NewUserToken("u1", "github", "access", "abc")))
	tok := r.UserTokens.Token(ctx, "u1", "github", "access")
	require.NotNil(t, tok)
	assert.Equal(t, "abc", tok.Value)
	assert.Nil(t, r.UserTokens.Token(ctx, "u1", "github", "refresh"))
	assert.Len(t, r.UserTokens.ForUser(ctx, "u1"), 1)
}

func TestRoleClaims(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	c := entity.Claim{Type: "perm", Value: "write"}
	mustOK(t, r.RoleClaims.Create(ctx, entity.NewRoleClaim("r1", c)))

	assert.Equal(t, []entity.Claim{c}, r.RoleClaims.GetClaims(ctx, "r1"))
	assert.Len(t, r.RoleClaims.Matching(ctx, "r1", c), 1)
	assert.Empty(t, r.RoleClaims.Matching(ctx, "r2", c))
}

func TestUsers_InRoleWithSeparatorInID(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	role := &entity.Role{Document: entity.Document{ID: "sales,emea"}, Name: "Sales", NormalizedName: "SALES"}
	u := entity.NewUser("alice")
	u.AddRole(role)
	mustOK(t, r.Users.Create(ctx, u))
	mustOK(t, r.Users.Create(ctx, entity.NewUser("bob")))

	users, err := r.Users.ScanInRole(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
	assert.Empty(t, r.Users.InRole(ctx, "sales"))
}
