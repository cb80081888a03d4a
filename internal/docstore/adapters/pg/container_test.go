package pg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere([]docstore.Condition{
		docstore.Eq("NormalizedUserName", "ALICE"),
		docstore.Contains("FlattenClaims", "dept|"),
		docstore.ContainsToken("FlattenRoleNames", "Admin"),
	}, 5)

	require.Equal(t,
		" AND doc->>$5 = $6"+
			" AND strpos(doc->>$7, $8) > 0"+
			" AND $10 = ANY(string_to_array(doc->>$9, ','))",
		where)
	require.Equal(t, []any{
		"NormalizedUserName", "ALICE",
		"FlattenClaims", "dept|",
		"FlattenRoleNames", "Admin",
	}, args)
}

func TestBuildWhere_UnknownOpMatchesNothing(t *testing.T) {
	where, args := buildWhere([]docstore.Condition{{Field: "x", Op: "regex", Value: "y"}}, 2)
	require.Equal(t, " AND FALSE", where)
	require.Empty(t, args)
}

func TestQualified(t *testing.T) {
	require.Equal(t, "(identity_documents.expires_at IS NULL OR identity_documents.expires_at > $1)", qualified(liveClause))
}

func TestQuery_InvalidContinuation(t *testing.T) {
	c := &container{c: &Client{}, db: "identity", props: docstore.ContainerProperties{ID: "docs"}}
	p := c.Query(context.Background(), docstore.None, docstore.Query{Continuation: "abc"})
	require.True(t, p.HasMoreResults())
	_, err := p.ReadNext(context.Background())
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
