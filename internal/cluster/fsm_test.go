package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

func applyLog(t *testing.T, f *FSM, c Command) *ApplyResult {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	res, ok := f.Apply(&raft.Log{Data: data}).(*ApplyResult)
	require.True(t, ok)
	return res
}

func seed(t *testing.T, f *FSM) {
	t.Helper()
	require.NoError(t, applyLog(t, f, Command{Type: CmdCreateDatabase, Database: "identity"}).Err)
	res := applyLog(t, f, Command{Type: CmdCreateContainer, Database: "identity", Props: &docstore.ContainerProperties{ID: "docs"}})
	require.NoError(t, res.Err)
	require.Equal(t, "/PartitionKey", res.Props.PartitionKeyPath)
}

func TestFSM_ReplicasConverge(t *testing.T) {
	a, b := NewFSM(memory.NewEngine()), NewFSM(memory.NewEngine())
	st := docstore.Stamp{ETag: `"fixed"`, Unix: 1700000000}
	cmds := []Command{
		{Type: CmdCreateDatabase, Database: "identity"},
		{Type: CmdCreateContainer, Database: "identity", Props: &docstore.ContainerProperties{ID: "docs"}},
		{Type: CmdCreateItem, Database: "identity", Container: "docs", PartitionKey: "IdentityRole",
			Doc: json.RawMessage(`{"id":"r1","PartitionKey":"IdentityRole","Name":"Admin"}`), Stamp: st},
	}
	for _, c := range cmds {
		require.NoError(t, applyLog(t, a, c).Err)
		require.NoError(t, applyLog(t, b, c).Err)
	}
	sa, err := a.Engine().Snapshot()
	require.NoError(t, err)
	sb, err := b.Engine().Snapshot()
	require.NoError(t, err)
	require.JSONEq(t, string(sa), string(sb))

	resp, err := a.Engine().Read("identity", "docs", "r1", docstore.NewPartitionKey("IdentityRole"))
	require.NoError(t, err)
	require.Equal(t, `"fixed"`, resp.ETag)
}

func TestFSM_ReplaceHonoursIfMatch(t *testing.T) {
	f := NewFSM(memory.NewEngine())
	seed(t, f)
	create := applyLog(t, f, Command{Type: CmdCreateItem, Database: "identity", Container: "docs",
		PartitionKey: "IdentityUser", Doc: json.RawMessage(`{"id":"u1","PartitionKey":"IdentityUser"}`),
		Stamp: docstore.Stamp{ETag: `"v1"`, Unix: 1}})
	require.NoError(t, create.Err)

	stale := applyLog(t, f, Command{Type: CmdReplaceItem, Database: "identity", Container: "docs", ID: "u1",
		PartitionKey: "IdentityUser", Doc: json.RawMessage(`{"id":"u1","PartitionKey":"IdentityUser"}`),
		IfMatch: `"v0"`, Stamp: docstore.Stamp{ETag: `"v2"`, Unix: 2}})
	require.ErrorIs(t, stale.Err, repository.ErrPreconditionFailed)

	ok := applyLog(t, f, Command{Type: CmdReplaceItem, Database: "identity", Container: "docs", ID: "u1",
		PartitionKey: "IdentityUser", Doc: json.RawMessage(`{"id":"u1","PartitionKey":"IdentityUser"}`),
		IfMatch: `"v1"`, Stamp: docstore.Stamp{ETag: `"v2"`, Unix: 2}})
	require.NoError(t, ok.Err)
	require.Equal(t, `"v2"`, ok.Response.ETag)

	del := applyLog(t, f, Command{Type: CmdDeleteItem, Database: "identity", Container: "docs", ID: "u1", PartitionKey: "IdentityUser"})
	require.NoError(t, del.Err)
	require.Equal(t, 204, del.Response.StatusCode)
}

func TestFSM_BadCommands(t *testing.T) {
	f := NewFSM(memory.NewEngine())
	res, ok := f.Apply(&raft.Log{Data: []byte("{not json")}).(*ApplyResult)
	require.True(t, ok)
	require.Error(t, res.Err)

	require.ErrorIs(t, applyLog(t, f, Command{Type: "bogus"}).Err, repository.ErrInvalidInput)
	require.ErrorIs(t, applyLog(t, f, Command{Type: CmdCreateContainer, Database: "identity"}).Err, repository.ErrInvalidInput)
}

type memSink struct {
	bytes.Buffer
	canceled bool
}

func (s *memSink) ID() string    { return "test" }
func (s *memSink) Close() error  { return nil }
func (s *memSink) Cancel() error { s.canceled = true; return nil }

func TestFSM_SnapshotRestore(t *testing.T) {
	f := NewFSM(memory.NewEngine())
	seed(t, f)
	require.NoError(t, applyLog(t, f, Command{Type: CmdCreateItem, Database: "identity", Container: "docs",
		PartitionKey: "IdentityRole", Doc: json.RawMessage(`{"id":"r1","PartitionKey":"IdentityRole"}`),
		Stamp: docstore.Stamp{ETag: `"e"`, Unix: 1}}).Err)

	snap, err := f.Snapshot()
	require.NoError(t, err)
	sink := &memSink{}
	require.NoError(t, snap.Persist(sink))
	require.False(t, sink.canceled)

	g := NewFSM(memory.NewEngine())
	require.NoError(t, g.Restore(io.NopCloser(bytes.NewReader(sink.Bytes()))))
	_, err = g.Engine().Read("identity", "docs", "r1", docstore.NewPartitionKey("IdentityRole"))
	require.NoError(t, err)
}

func TestNode_InMemorySingleNode(t *testing.T) {
	n, err := NewNode(NodeOptions{NodeID: "n1", FSM: NewFSM(memory.NewEngine()), InMemory: true, LogOutput: io.Discard})
	require.NoError(t, err)
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, n.WaitForLeader(ctx))
	require.Eventually(t, n.IsLeader, 5*time.Second, 20*time.Millisecond)

	res, err := n.Apply(ctx, Command{Type: CmdCreateDatabase, Database: "identity"})
	require.NoError(t, err)
	require.True(t, res.Created)
	require.True(t, n.FSM().Engine().HasDatabase("identity"))
	require.Equal(t, "n1", n.NodeID())
}
