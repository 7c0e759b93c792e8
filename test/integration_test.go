//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-switchport/internal/adapter/infrastructure/configdb"
	"golang-switchport/internal/adapter/switchport"
	"golang-switchport/internal/types"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisImage = "redis:7-alpine"

// startConfigDB runs a throwaway Redis standing in for the switch CONFIG_DB.
func startConfigDB(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func newTransport(t *testing.T, addr string, requirePort bool) *configdb.Transport {
	t.Helper()
	db := 0
	transport, err := configdb.NewTransport(context.Background(), configdb.Config{
		Addr:        addr,
		DB:          &db,
		RequirePort: requirePort,
	})
	require.NoError(t, err)
	t.Cleanup(func() { transport.Close() })
	return transport
}

func reconcile(t *testing.T, transport *configdb.Transport, desired types.DesiredState) *types.Outcome {
	t.Helper()
	manager, err := switchport.NewManager(desired, transport, switchport.Options{})
	require.NoError(t, err)
	outcome, err := manager.Reconcile(context.Background())
	require.NoError(t, err)
	return outcome
}

// TestSwitchportLifecycle drives create, update, no-op and delete passes against a real CONFIG_DB.
func TestSwitchportLifecycle(t *testing.T) {
	addr := startConfigDB(t)
	transport := newTransport(t, addr, false)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	tagging := types.VlanTaggingEnable
	untagged := "default"
	desired := types.DesiredState{
		InterfaceID: "Ethernet4",
		Settings: types.Settings{
			VlanTagging:  &tagging,
			TaggedVlans:  []string{"red", "blue"},
			UntaggedVlan: &untagged,
		},
	}

	t.Run("Create", func(t *testing.T) {
		outcome := reconcile(t, transport, desired)
		assert.Equal(t, types.ActionCreate, outcome.Action)
		assert.Nil(t, outcome.Before)

		fields, err := rdb.HGetAll(ctx, "SWITCHPORT|Ethernet4").Result()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"vlan_tagging":  "enable",
			"tagged_vlans":  "red,blue",
			"untagged_vlan": "default",
		}, fields)
	})

	t.Run("CreateOnExistingEntry", func(t *testing.T) {
		// A create that races a concurrent re-add lands on an existing entry
		other := "purple"
		reply, err := transport.Execute(ctx, types.Command{
			Operation:   types.OpCreate,
			InterfaceID: "Ethernet4",
			Settings:    types.Settings{UntaggedVlan: &other},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, reply.ExitStatus)
		assert.JSONEq(t, `{"status": 201, "result": {
			"interface": "Ethernet4",
			"vlan_tagging": "enable",
			"tagged_vlans": ["red", "blue"],
			"untagged_vlan": "purple"
		}}`, reply.Stdout)

		outcome := reconcile(t, transport, desired)
		assert.Equal(t, types.ActionUpdate, outcome.Action)
		assert.Equal(t, types.ChangeSet{types.AttrUntaggedVlan}, outcome.ChangeSet)
	})

	t.Run("Idempotent", func(t *testing.T) {
		outcome := reconcile(t, transport, desired)
		assert.Equal(t, types.ActionNone, outcome.Action)
		assert.False(t, outcome.Changed())
	})

	t.Run("UpdateChangedOnly", func(t *testing.T) {
		update := desired
		update.Settings = types.Settings{TaggedVlans: []string{"green"}}

		outcome := reconcile(t, transport, update)
		assert.Equal(t, types.ActionUpdate, outcome.Action)
		assert.Equal(t, types.ChangeSet{types.AttrTaggedVlans}, outcome.ChangeSet)

		fields, err := rdb.HGetAll(ctx, "SWITCHPORT|Ethernet4").Result()
		require.NoError(t, err)
		assert.Equal(t, "green", fields["tagged_vlans"])
		assert.Equal(t, "enable", fields["vlan_tagging"])
	})

	t.Run("ClearAllFields", func(t *testing.T) {
		empty := ""
		cleared := desired
		cleared.Settings = types.Settings{TaggedVlans: []string{}, UntaggedVlan: &empty}

		outcome := reconcile(t, transport, cleared)
		assert.Equal(t, types.ActionUpdate, outcome.Action)

		fields, err := rdb.HGetAll(ctx, "SWITCHPORT|Ethernet4").Result()
		require.NoError(t, err)
		assert.NotContains(t, fields, "tagged_vlans")
		assert.NotContains(t, fields, "untagged_vlan")

		again := reconcile(t, transport, cleared)
		assert.Equal(t, types.ActionNone, again.Action)
	})

	t.Run("DryRunDelete", func(t *testing.T) {
		manager, err := switchport.NewManager(types.DesiredState{
			InterfaceID: "Ethernet4",
			Lifecycle:   types.LifecycleAbsent,
		}, transport, switchport.Options{DryRun: true})
		require.NoError(t, err)

		outcome, err := manager.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, types.ActionDelete, outcome.Action)
		assert.True(t, outcome.DryRun)

		n, err := rdb.Exists(ctx, "SWITCHPORT|Ethernet4").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "dry run must not touch the device")
	})

	t.Run("Delete", func(t *testing.T) {
		absent := types.DesiredState{InterfaceID: "Ethernet4", Lifecycle: types.LifecycleAbsent}

		outcome := reconcile(t, transport, absent)
		assert.Equal(t, types.ActionDelete, outcome.Action)
		assert.Nil(t, outcome.After)

		n, err := rdb.Exists(ctx, "SWITCHPORT|Ethernet4").Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		again := reconcile(t, transport, absent)
		assert.Equal(t, types.ActionNone, again.Action)
	})
}

// TestRequirePort checks that creation is refused for interfaces missing from the PORT table.
func TestRequirePort(t *testing.T) {
	addr := startConfigDB(t)
	transport := newTransport(t, addr, true)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()

	manager, err := switchport.NewManager(types.DesiredState{InterfaceID: "Ethernet12"}, transport, switchport.Options{})
	require.NoError(t, err)

	outcome, err := manager.Reconcile(ctx)
	require.Error(t, err)
	assert.Equal(t, types.ActionCreate, outcome.Action)

	var rejected *switchport.DeviceRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, types.StatusNotFound, rejected.Status)

	require.NoError(t, rdb.HSet(ctx, "PORT|Ethernet12", "admin_status", "up").Err())

	outcome, err = manager.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ActionCreate, outcome.Action)
	assert.Equal(t, &types.InterfaceResource{InterfaceID: "Ethernet12"}, outcome.After)
}
