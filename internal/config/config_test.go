package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "identity.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_DefaultsAndYAML(t *testing.T) {
	p := writeYAML(t, `
connection_string: memory://
database_id: identity
container_id: users
partition_key_path: PartitionKey
cache:
  driver: memory
  ttl: 1m
raft:
  peers:
    n1: 127.0.0.1:7000
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.PartitionKeyPath != "/PartitionKey" {
		t.Errorf("PartitionKeyPath = %q", c.PartitionKeyPath)
	}
	if c.Strategy != "shared" {
		t.Errorf("Strategy = %q", c.Strategy)
	}
	if c.Concurrency.MaxRetries != 5 {
		t.Errorf("Concurrency.MaxRetries = %d", c.Concurrency.MaxRetries)
	}
	if got := c.ConcurrencyBackoff(); got != 20*time.Millisecond {
		t.Errorf("ConcurrencyBackoff() = %v", got)
	}
	if c.Cascade.MaxAttempts != 2 {
		t.Errorf("Cascade.MaxAttempts = %d", c.Cascade.MaxAttempts)
	}
	if got := c.CacheTTL(); got != time.Minute {
		t.Errorf("CacheTTL() = %v", got)
	}
	if want := map[string]string{"n1": "127.0.0.1:7000"}; !reflect.DeepEqual(c.Raft.Peers, want) {
		t.Errorf("Raft.Peers = %v", c.Raft.Peers)
	}
	if c.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", c.HTTP.Addr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COSMOS_IDENTITY", "memory://")
	t.Setenv("IDENTITY_DATABASE_ID", "db")
	t.Setenv("IDENTITY_CONTAINER_ID", "c")
	t.Setenv("IDENTITY_STRATEGY", "Per-Kind")
	t.Setenv("IDENTITY_PER_KIND_CONTAINERS", "IdentityUser=users, IdentityRole=roles")
	t.Setenv("IDENTITY_RATE_LIMIT_RPS", "2.5")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ConnectionString != "memory://" {
		t.Errorf("ConnectionString = %q", c.ConnectionString)
	}
	if c.Strategy != "per-kind" {
		t.Errorf("Strategy = %q", c.Strategy)
	}
	if want := map[string]string{"IdentityUser": "users", "IdentityRole": "roles"}; !reflect.DeepEqual(c.PerKindContainers, want) {
		t.Errorf("PerKindContainers = %v", c.PerKindContainers)
	}
	if c.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RateLimit.RequestsPerSecond = %v", c.RateLimit.RequestsPerSecond)
	}
	if c.PartitionKeyPath != DefaultPartitionKeyPath {
		t.Errorf("PartitionKeyPath = %q", c.PartitionKeyPath)
	}
}

func TestLoad_FailFast(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
		msg  string
	}{
		{"no connection string", "database_id: a\ncontainer_id: b\n", ErrNoConnectionString, "no connection string"},
		{"no database id", "connection_string: memory://\ncontainer_id: b\n", ErrNoDatabaseID, ""},
		{"no container id", "connection_string: memory://\ndatabase_id: a\n", ErrNoContainerID, "no container id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load err = %v, want %v", err, tt.want)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := "connection_string: memory://\ndatabase_id: a\ncontainer_id: b\n"
	tests := map[string]string{
		"unknown strategy":  "strategy: sharded\n",
		"bad backoff":       "concurrency:\n  backoff: soon\n",
		"redis without url": "cache:\n  driver: redis\n",
	}
	for name, extra := range tests {
		if _, err := Load(writeYAML(t, base+extra)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseKVList(t *testing.T) {
	if got, want := parseKVList(" a=1 ,b=2,=x,c=", ","), map[string]string{"a": "1", "b": "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("parseKVList = %v, want %v", got, want)
	}
	if got := parseKVList("", ","); len(got) != 0 {
		t.Errorf("parseKVList(\"\") = %v, want empty", got)
	}
}
