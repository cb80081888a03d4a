package identity

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
	"github.com/mobsites/Cosmos.Identity/internal/store"
)

// faultyContainer falla los deletes y las queries de una partición las
// veces indicadas.
type faultyContainer struct {
	docstore.Container

	mu      sync.Mutex
	fails   map[string]int
	queries map[string]int
}

func (f *faultyContainer) failQueries(kind string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries[kind] = n
}

func (f *faultyContainer) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	f.mu.Lock()
	if f.queries[pk.Value()] > 0 {
		f.queries[pk.Value()]--
		f.mu.Unlock()
		return docstore.ErrorPager(docstore.NewStatusError(http.StatusServiceUnavailable, "injected failure"))
	}
	f.mu.Unlock()
	return f.Container.Query(ctx, pk, q)
}

func (f *faultyContainer) failDeletes(kind string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[kind] = n
}

func (f *faultyContainer) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	f.mu.Lock()
	if f.fails[pk.Value()] > 0 {
		f.fails[pk.Value()]--
		f.mu.Unlock()
		return nil, docstore.NewStatusError(http.StatusServiceUnavailable, "injected failure")
	}
	f.mu.Unlock()
	return f.Container.DeleteItem(ctx, id, pk)
}

type fixture struct {
	repos *store.Repositories
	users *UserStore
	roles *RoleStore
	fc    *faultyContainer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := memory.New().CreateDatabaseIfNotExists(ctx, "identity")
	require.NoError(t, err)
	c, err := db.CreateContainerIfNotExists(ctx, docstore.ContainerProperties{ID: "identity"})
	require.NoError(t, err)
	fc := &faultyContainer{Container: c, fails: map[string]int{}, queries: map[string]int{}}
	repos := store.New(storage.NewProvider(storage.SharedContainer(fc)))
	return &fixture{repos: repos, users: NewUserStore(repos, opts...), roles: NewRoleStore(repos, opts...), fc: fc}
}

func (f *fixture) role(t *testing.T, name string) *entity.Role {
	t.Helper()
	r := entity.NewRole(name)
	res, err := f.roles.Create(context.Background(), r)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())
	return r
}

func (f *fixture) user(t *testing.T, name string) *entity.User {
	t.Helper()
	u := entity.NewUser(name)
	res, err := f.users.Create(context.Background(), u)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())
	return u
}

func (f *fixture) stored(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := f.repos.Users.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func ids(users []*entity.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestUserStore_AddAndRemoveRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.role(t, "Admin")
	alice := f.user(t, "alice")

	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN"))
	inRole, err := f.users.GetUsersInRole(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, ids(inRole))

	ok, err := f.users.IsInRole(ctx, alice, "ADMIN")
	require.NoError(t, err)
	assert.True(t, ok)

	// El usuario persistido y el del caller coinciden.
	assert.Equal(t, alice.FlattenRoleIds, f.stored(t, alice.ID).FlattenRoleIds)

	require.NoError(t, f.users.RemoveFromRole(ctx, alice, "ADMIN"))
	inRole, err = f.users.GetUsersInRole(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Empty(t, inRole)

	stored := f.stored(t, alice.ID)
	assert.Empty(t, stored.FlattenRoleNames)
	assert.Empty(t, stored.FlattenRoleIds)
	assert.Empty(t, f.repos.UserRoles.ForUser(ctx, alice.ID))
}

func TestUserStore_RemoveRoleIsExactToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.role(t, "Admin")
	admin2 := f.role(t, "Admin2")
	alice := f.user(t, "alice")

	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN"))
	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN2"))
	require.NoError(t, f.users.RemoveFromRole(ctx, alice, "ADMIN"))

	roles, err := f.users.GetRoles(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin2"}, roles)

	stored := f.stored(t, alice.ID)
	assert.Equal(t, admin2.ID+",", stored.FlattenRoleIds)
	assert.Equal(t, "Admin2,", stored.FlattenRoleNames)

	inRole, err := f.users.GetUsersInRole(ctx, "ADMIN2")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, ids(inRole))
}

func TestUserStore_AddToRoleTwiceKeepsOneLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.role(t, "Admin")
	alice := f.user(t, "alice")

	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN"))
	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN"))
	assert.Len(t, f.repos.UserRoles.ForUser(ctx, alice.ID), 1)
	assert.Equal(t, []string{"Admin"}, alice.RoleNames())
}

func TestUserStore_ArgumentErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	_, err := f.users.Create(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, f.users.AddToRole(ctx, nil, "ADMIN"), ErrInvalidArgument)
	require.ErrorIs(t, f.users.AddToRole(ctx, alice, ""), ErrInvalidArgument)
	_, err = f.users.FindByName(ctx, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, f.users.AddClaims(ctx, alice, nil), ErrInvalidArgument)
	require.ErrorIs(t, f.users.ReplaceClaim(ctx, alice, entity.Claim{}, entity.Claim{Type: "a"}), ErrInvalidArgument)
	_, err = f.roles.Delete(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	err = f.users.AddToRole(ctx, alice, "GHOST")
	require.ErrorIs(t, err, ErrRoleNotFound)
	require.NoError(t, f.users.RemoveFromRole(ctx, alice, "GHOST"))
}

func TestUserStore_Finders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := entity.NewUser("alice")
	u.Email = "alice@example.com"
	u.NormalizedEmail = entity.Normalize(u.Email)
	_, err := f.users.Create(ctx, u)
	require.NoError(t, err)

	got, err := f.users.FindByName(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, got)
	got, err = f.users.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	got, err = f.users.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Len(t, f.users.Users(ctx), 1)
}

func TestUserStore_UpdateRefreshesStampAndDetectsStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")
	stale := *u
	stamp := u.ConcurrencyStamp

	u.PhoneNumber = "555"
	res, err := f.users.Update(ctx, u)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())
	assert.NotEqual(t, stamp, u.ConcurrencyStamp)

	stale.PhoneNumber = "666"
	res, err = f.users.Update(ctx, &stale)
	require.NoError(t, err)
	require.Equal(t, http.StatusPreconditionFailed, res.StatusCode)
	assert.Equal(t, stamp, stale.ConcurrencyStamp)
}

func TestUserStore_ReplaceClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	eng := entity.Claim{Type: "dept", Value: "eng"}
	sales := entity.Claim{Type: "dept", Value: "sales"}

	require.NoError(t, f.users.AddClaims(ctx, alice, []entity.Claim{eng}))
	require.NoError(t, f.users.ReplaceClaim(ctx, alice, eng, sales))

	claims, err := f.users.GetClaims(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []entity.Claim{sales}, claims)
	assert.Equal(t, []entity.Claim{sales}, f.stored(t, alice.ID).FlattenedClaims())

	users, err := f.users.GetUsersForClaim(ctx, sales)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, ids(users))
	users, err = f.users.GetUsersForClaim(ctx, eng)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserStore_RemoveClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	a := entity.Claim{Type: "perm", Value: "read"}
	b := entity.Claim{Type: "perm", Value: "read,write"}

	require.NoError(t, f.users.AddClaims(ctx, alice, []entity.Claim{a, b}))
	require.NoError(t, f.users.RemoveClaims(ctx, alice, []entity.Claim{a}))

	claims, err := f.users.GetClaims(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []entity.Claim{b}, claims)
	assert.Equal(t, []entity.Claim{b}, f.stored(t, alice.ID).FlattenedClaims())
}

func TestUserStore_RemoveClaimsKeepsTokenWhenLookupFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	dept := entity.Claim{Type: "dept", Value: "eng"}
	require.NoError(t, f.users.AddClaims(ctx, alice, []entity.Claim{dept}))

	f.fc.failQueries(entity.KindUserClaim, 1)
	err := f.users.RemoveClaims(ctx, alice, []entity.Claim{dept})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, docstore.StatusCodeOf(err))

	assert.Equal(t, []entity.Claim{dept}, f.stored(t, alice.ID).FlattenedClaims())
	claims, err := f.users.GetClaims(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []entity.Claim{dept}, claims)
}

func TestUserStore_ReplaceClaimFailsWhenLookupFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	eng := entity.Claim{Type: "dept", Value: "eng"}
	ops := entity.Claim{Type: "dept", Value: "ops"}
	require.NoError(t, f.users.AddClaims(ctx, alice, []entity.Claim{eng}))

	f.fc.failQueries(entity.KindUserClaim, 1)
	err := f.users.ReplaceClaim(ctx, alice, eng, ops)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, docstore.StatusCodeOf(err))

	assert.Equal(t, []entity.Claim{eng}, f.stored(t, alice.ID).FlattenedClaims())
	claims, err := f.users.GetClaims(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []entity.Claim{eng}, claims)
}

func TestUserStore_RoleLinkLookupFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.role(t, "Admin")
	alice := f.user(t, "alice")
	require.NoError(t, f.users.AddToRole(ctx, alice, "ADMIN"))

	// Sin poder leer los vínculos no se borra nada ni se toca el aplanado.
	f.fc.failQueries(entity.KindUserRole, 1)
	err := f.users.RemoveFromRole(ctx, alice, "ADMIN")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, docstore.StatusCodeOf(err))
	stored := f.stored(t, alice.ID)
	assert.True(t, stored.HasRoleID(admin.ID))
	assert.Equal(t, []string{"Admin"}, stored.RoleNames())
	assert.Len(t, f.repos.UserRoles.ForUser(ctx, alice.ID), 1)

	// Tampoco se crea un vínculo duplicado.
	f.fc.failQueries(entity.KindUserRole, 1)
	require.Error(t, f.users.AddToRole(ctx, alice, "ADMIN"))
	assert.Len(t, f.repos.UserRoles.ForUser(ctx, alice.ID), 1)
}

func TestUserStore_Logins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	info := entity.LoginInfo{LoginProvider: "github", ProviderKey: "42", ProviderDisplayName: "GitHub"}

	require.NoError(t, f.users.AddLogin(ctx, alice, info))
	got, err := f.users.FindByLogin(ctx, "github", "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	logins, err := f.users.GetLogins(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []entity.LoginInfo{info}, logins)

	require.NoError(t, f.users.RemoveLogin(ctx, alice, "github", "42"))
	got, err = f.users.FindByLogin(ctx, "github", "42")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, f.users.RemoveLogin(ctx, alice, "github", "42"))
}

func TestUserStore_TokensAndRecoveryCodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	require.NoError(t, f.users.SetToken(ctx, alice, "github", "access", "v1"))
	require.NoError(t, f.users.SetToken(ctx, alice, "github", "access", "v2"))
	v, err := f.users.GetToken(ctx, alice, "github", "access")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Len(t, f.repos.UserTokens.ForUser(ctx, alice.ID), 1)

	require.NoError(t, f.users.RemoveToken(ctx, alice, "github", "access"))
	v, err = f.users.GetToken(ctx, alice, "github", "access")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, f.users.SetAuthenticatorKey(ctx, alice, "KEY"))
	key, err := f.users.GetAuthenticatorKey(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "KEY", key)

	require.NoError(t, f.users.ReplaceCodes(ctx, alice, []string{"a", "b", "c"}))
	n, err := f.users.CountCodes(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ok, err := f.users.RedeemCode(ctx, alice, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.users.RedeemCode(ctx, alice, "b")
	require.NoError(t, err)
	assert.False(t, ok)
	n, err = f.users.CountCodes(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// seed crea un usuario con dos roles, dos claims, un login y un token.
func seed(t *testing.T, f *fixture) *entity.User {
	t.Helper()
	ctx := context.Background()
	f.role(t, "Admin")
	f.role(t, "Reader")
	u := f.user(t, "alice")
	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN"))
	require.NoError(t, f.users.AddToRole(ctx, u, "READER"))
	require.NoError(t, f.users.AddClaims(ctx, u, []entity.Claim{{Type: "a", Value: "1"}, {Type: "b", Value: "2"}}))
	require.NoError(t, f.users.AddLogin(ctx, u, entity.LoginInfo{LoginProvider: "github", ProviderKey: "42"}))
	require.NoError(t, f.users.SetToken(ctx, u, "github", "access", "x"))
	return u
}

func TestUserStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := seed(t, f)

	res, err := f.users.Delete(ctx, u)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())

	assert.Nil(t, f.repos.Users.FindByID(ctx, u.ID))
	assert.Empty(t, f.repos.UserRoles.ForUser(ctx, u.ID))
	assert.Empty(t, f.repos.UserClaims.ForUser(ctx, u.ID))
	assert.Empty(t, f.repos.UserLogins.ForUser(ctx, u.ID))
	assert.Empty(t, f.repos.UserTokens.ForUser(ctx, u.ID))
}

func TestUserStore_DeleteRetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := seed(t, f)

	// Un fallo por documento como mucho: el reintento lo completa.
	f.fc.failDeletes(entity.KindUserClaim, 1)
	res, err := f.users.Delete(ctx, u)
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	assert.Empty(t, f.repos.UserClaims.ForUser(ctx, u.ID))
}

func TestUserStore_DeletePartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := seed(t, f)
	before := testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues(stepUserClaims))

	f.fc.failDeletes(entity.KindUserClaim, 100)
	res, err := f.users.Delete(ctx, u)
	require.True(t, res.Succeeded, "el usuario se borra aunque falle la cascada")
	require.ErrorIs(t, err, ErrCascadeIncomplete)

	var ce *CascadeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, map[string]int{stepUserClaims: 2}, ce.Failed)
	assert.Equal(t, http.StatusServiceUnavailable, docstore.StatusCodeOf(err))
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues(stepUserClaims)))

	// Los pasos siguientes corrieron igual.
	assert.Nil(t, f.repos.Users.FindByID(ctx, u.ID))
	assert.Empty(t, f.repos.UserRoles.ForUser(ctx, u.ID))
	assert.Empty(t, f.repos.UserLogins.ForUser(ctx, u.ID))
	assert.Empty(t, f.repos.UserTokens.ForUser(ctx, u.ID))
	assert.Len(t, f.repos.UserClaims.ForUser(ctx, u.ID), 2)
}

func TestUserStore_ConcurrentRoleChangesAreNotLost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.role(t, "Admin")
	f.role(t, "Editor")
	u := f.user(t, "alice")

	// Dos copias con el mismo _etag, como dos requests concurrentes.
	a := f.stored(t, u.ID)
	b := f.stored(t, u.ID)
	before := testutil.ToFloat64(metrics.ConcurrencyRetries.WithLabelValues("add_to_role"))

	require.NoError(t, f.users.AddToRole(ctx, a, "ADMIN"))
	require.NoError(t, f.users.AddToRole(ctx, b, "EDITOR"))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConcurrencyRetries.WithLabelValues("add_to_role")))
	stored := f.stored(t, u.ID)
	assert.ElementsMatch(t, []string{"Admin", "Editor"}, stored.RoleNames())
	assert.Equal(t, stored.ETag, b.ETag)
}

func TestUserStore_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithConfig(Config{MaxRetries: -1}))
	f.role(t, "Admin")
	u := f.user(t, "alice")
	stale := *u

	u.PhoneNumber = "555"
	_, err := f.users.Update(ctx, u)
	require.NoError(t, err)

	err = f.users.AddToRole(ctx, &stale, "ADMIN")
	require.Error(t, err)
	assert.Equal(t, http.StatusPreconditionFailed, docstore.StatusCodeOf(err))
}

func TestRoleStore_RenamePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.role(t, "Admin")
	u := f.user(t, "alice")
	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN"))

	admin.Name, admin.NormalizedName = "Owner", "OWNER"
	res, err := f.roles.Update(ctx, admin)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())

	assert.Equal(t, []string{"Owner"}, f.stored(t, u.ID).RoleNames())
	got, err := f.roles.FindByName(ctx, "OWNER")
	require.NoError(t, err)
	require.NotNil(t, got)
	got, err = f.roles.FindByName(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoleStore_RenamePropagationFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.role(t, "Admin")
	u := f.user(t, "alice")
	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN"))

	f.fc.failQueries(entity.KindUser, 1)
	admin.Name, admin.NormalizedName = "Owner", "OWNER"
	res, err := f.roles.Update(ctx, admin)
	require.True(t, res.Succeeded, res.String())
	require.ErrorIs(t, err, ErrCascadeIncomplete)

	var ce *CascadeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rename", ce.Op)
	assert.Contains(t, err.Error(), "cascade rename of "+admin.ID)
	assert.Equal(t, []string{"Admin"}, f.stored(t, u.ID).RoleNames())
}

func TestRoleStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.role(t, "Admin")
	f.role(t, "Admin2")
	u := f.user(t, "alice")
	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN"))
	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN2"))
	require.NoError(t, f.roles.AddClaim(ctx, admin, entity.Claim{Type: "perm", Value: "all"}))

	res, err := f.roles.Delete(ctx, admin)
	require.NoError(t, err)
	require.True(t, res.Succeeded, res.String())

	assert.Empty(t, f.repos.RoleClaims.ForRole(ctx, admin.ID))
	assert.Empty(t, f.repos.UserRoles.ForRole(ctx, admin.ID))
	assert.Equal(t, []string{"Admin2"}, f.stored(t, u.ID).RoleNames())
	assert.Len(t, f.roles.Roles(ctx), 1)
}

func TestRoleStore_Claims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.role(t, "Admin")
	c := entity.Claim{Type: "perm", Value: "write"}

	require.NoError(t, f.roles.AddClaim(ctx, r, c))
	claims, err := f.roles.GetClaims(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, []entity.Claim{c}, claims)

	require.NoError(t, f.roles.RemoveClaim(ctx, r, c))
	claims, err = f.roles.GetClaims(ctx, r)
	require.NoError(t, err)
	assert.Empty(t, claims)
}
