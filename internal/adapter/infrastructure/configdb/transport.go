// Package configdb provides a Transport adapter for devices whose management API is a Redis CONFIG_DB.
package configdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/port"
	"golang-switchport/internal/types"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	SwitchportTable = "SWITCHPORT"
	PortTable       = "PORT"

	fieldVlanTagging  = "vlan_tagging"
	fieldTaggedVlans  = "tagged_vlans"
	fieldUntaggedVlan = "untagged_vlan"

	// Field-less entries carry a NULL sentinel so the hash exists
	nullField = "NULL"

	defaultDB      = 4
	defaultTimeout = 5 * time.Second
	scanCountHint  = 100
)

// Config represents the CONFIG_DB transport configuration.
type Config struct {
	Addr     string `yaml:"addr" toml:"addr" validate:"required,hostname_port"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty"`
	// DB defaults to 4, the SONiC CONFIG_DB index.
	DB      *int   `yaml:"db,omitempty" toml:"db,omitempty" validate:"omitempty,min=0,max=15"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	// RequirePort refuses to create switchport configuration for interfaces missing from the PORT table.
	RequirePort bool `yaml:"require_port,omitempty" toml:"require_port,omitempty"`
}

// Options builds the Redis client options, applying defaults.
func (c Config) Options() (*redis.Options, error) {
	db := defaultDB
	if c.DB != nil {
		db = *c.DB
	}
	timeout := defaultTimeout
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid configdb timeout %q: %w", c.Timeout, err)
		}
		timeout = d
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           db,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	}, nil
}

// Transport implements the Transport port on top of CONFIG_DB hashes.
// Replies follow the same JSON payload convention as the device CLI.
type Transport struct {
	client      *redis.Client
	requirePort bool
	logger      *logrus.Entry
}

// Ensure Transport implements the Transport port
var _ port.Transport = (*Transport)(nil)

// NewTransport connects to CONFIG_DB and checks that it answers.
func NewTransport(ctx context.Context, cfg Config) (*Transport, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to config_db at %s: %w", cfg.Addr, err)
	}

	logger := logging.WithComponent("configdb").WithField("addr", cfg.Addr)
	logger.WithField("db", opts.DB).Info("Connected to config_db")

	return &Transport{
		client:      client,
		requirePort: cfg.RequirePort,
		logger:      logger,
	}, nil
}

// Execute maps cmd onto CONFIG_DB reads and writes. Redis errors are channel failures.
func (t *Transport) Execute(ctx context.Context, cmd types.Command) (types.Reply, error) {
	t.logger.WithFields(logrus.Fields{
		"operation": cmd.Operation,
		"interface": cmd.InterfaceID,
	}).Debug("Executing config_db command")

	switch cmd.Operation {
	case types.OpList:
		return t.list(ctx)
	case types.OpGet:
		return t.get(ctx, cmd.InterfaceID)
	case types.OpCreate:
		return t.create(ctx, cmd)
	case types.OpUpdate:
		return t.update(ctx, cmd)
	case types.OpDelete:
		return t.delete(ctx, cmd.InterfaceID)
	}
	return reply(400, nil, fmt.Sprintf("unsupported operation %q", cmd.Operation))
}

func (t *Transport) list(ctx context.Context) (types.Reply, error) {
	keys, err := scanKeys(ctx, t.client, SwitchportTable+"|*")
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to scan %s: %w", SwitchportTable, err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, SwitchportTable+"|"))
	}
	sort.Strings(ids)
	return reply(types.StatusOK, ids, "")
}

func (t *Transport) get(ctx context.Context, id string) (types.Reply, error) {
	fields, err := t.client.HGetAll(ctx, redisKey(SwitchportTable, id)).Result()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to read %s: %w", redisKey(SwitchportTable, id), err)
	}
	if len(fields) == 0 {
		return reply(types.StatusNotFound, nil, notFound(id))
	}
	return reply(types.StatusOK, resourceFromFields(id, fields), "")
}

// create writes every set field. An existing entry is overwritten field by field and still answers 201,
// so a create racing a concurrent re-add converges instead of failing.
func (t *Transport) create(ctx context.Context, cmd types.Command) (types.Reply, error) {
	key := redisKey(SwitchportTable, cmd.InterfaceID)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists > 0 {
		t.logger.WithField("interface", cmd.InterfaceID).Debug("Switchport configuration already exists, overwriting")
		return t.write(ctx, cmd, types.StatusCreated)
	}

	if t.requirePort {
		ports, err := t.client.Exists(ctx, redisKey(PortTable, cmd.InterfaceID)).Result()
		if err != nil {
			return types.Reply{}, fmt.Errorf("failed to check port %s: %w", cmd.InterfaceID, err)
		}
		if ports == 0 {
			return reply(types.StatusNotFound, nil, fmt.Sprintf("interface %s does not exist", cmd.InterfaceID))
		}
	}

	set, _ := fieldsFromSettings(cmd.Settings)
	if len(set) == 0 {
		set = map[string]string{nullField: nullField}
	}
	// All fields in one HSET so subscribers see a single keyspace notification
	if err := t.client.HSet(ctx, key, hsetArgs(set)...).Err(); err != nil {
		return types.Reply{}, fmt.Errorf("failed to write %s: %w", key, err)
	}

	return reply(types.StatusCreated, resourceFromFields(cmd.InterfaceID, set), "")
}

func (t *Transport) update(ctx context.Context, cmd types.Command) (types.Reply, error) {
	key := redisKey(SwitchportTable, cmd.InterfaceID)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists == 0 {
		return reply(types.StatusNotFound, nil, notFound(cmd.InterfaceID))
	}
	return t.write(ctx, cmd, types.StatusOK)
}

// write applies the set fields of an existing entry in one MULTI/EXEC and answers with the stored state.
func (t *Transport) write(ctx context.Context, cmd types.Command, status int) (types.Reply, error) {
	key := redisKey(SwitchportTable, cmd.InterfaceID)

	set, remove := fieldsFromSettings(cmd.Settings)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(remove) > 0 {
			// Keeps the entry alive if every field is cleared
			pipe.HSet(ctx, key, nullField, nullField)
			pipe.HDel(ctx, key, remove...)
		}
		if len(set) > 0 {
			pipe.HSet(ctx, key, hsetArgs(set)...)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return types.Reply{}, fmt.Errorf("failed to update %s: %w", key, err)
	}

	fields, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to read back %s: %w", key, err)
	}
	return reply(status, resourceFromFields(cmd.InterfaceID, fields), "")
}

func (t *Transport) delete(ctx context.Context, id string) (types.Reply, error) {
	n, err := t.client.Del(ctx, redisKey(SwitchportTable, id)).Result()
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to delete %s: %w", redisKey(SwitchportTable, id), err)
	}
	if n == 0 {
		return reply(types.StatusNotFound, nil, notFound(id))
	}
	return reply(types.StatusOK, nil, "")
}

// Close closes the Redis client.
func (t *Transport) Close() error {
	return t.client.Close()
}

func redisKey(table, key string) string {
	return fmt.Sprintf("%s|%s", table, key)
}

func notFound(id string) string {
	return fmt.Sprintf("switchport configuration for %s not found", id)
}

// fieldsFromSettings splits the set attributes into fields to write and fields to remove.
// Empty values are stored as absent fields.
func fieldsFromSettings(s types.Settings) (set map[string]string, remove []string) {
	set = make(map[string]string)
	put := func(field, value string) {
		if value == "" {
			remove = append(remove, field)
			return
		}
		set[field] = value
	}

	if s.VlanTagging != nil {
		put(fieldVlanTagging, string(*s.VlanTagging))
	}
	if s.TaggedVlans != nil {
		put(fieldTaggedVlans, strings.Join(s.TaggedVlans, ","))
	}
	if s.UntaggedVlan != nil {
		put(fieldUntaggedVlan, *s.UntaggedVlan)
	}
	return set, remove
}

func resourceFromFields(id string, fields map[string]string) *types.InterfaceResource {
	res := &types.InterfaceResource{
		InterfaceID:  id,
		VlanTagging:  types.VlanTagging(fields[fieldVlanTagging]),
		UntaggedVlan: fields[fieldUntaggedVlan],
	}
	if tagged, ok := fields[fieldTaggedVlans]; ok {
		res.TaggedVlans = types.ParseVlanList(tagged)
	}
	return res
}

// hsetArgs flattens fields in sorted order for a deterministic HSET.
func hsetArgs(fields map[string]string) []interface{} {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]interface{}, 0, len(fields)*2)
	for _, name := range names {
		args = append(args, name, fields[name])
	}
	return args
}

// scanKeys iterates keys with cursor-based SCAN instead of the blocking KEYS.
func scanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, scanCountHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

type payload struct {
	Status  int         `json:"status"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

// reply encodes a device payload. Non-success statuses exit 1, like the CLI.
func reply(status int, result interface{}, message string) (types.Reply, error) {
	out, err := json.Marshal(payload{Status: status, Result: result, Message: message})
	if err != nil {
		return types.Reply{}, fmt.Errorf("failed to encode reply: %w", err)
	}
	r := types.Reply{Stdout: string(out)}
	if status >= 300 {
		r.ExitStatus = 1
		r.Stderr = message
	}
	return r, nil
}
