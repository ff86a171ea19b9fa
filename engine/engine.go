// Package engine owns every chat entity and invariant. Each public
// operation loads and validates preconditions from the store, applies
// its writes in a fixed order, emits exactly one domain event on
// success, and returns the resulting entity.
//
// The store has no transactions, so the dual-write ordering is itself
// an invariant: on create the entity record is written before its
// index entry is appended; on delete the index entry is removed before
// the record. A crash between the two steps leaves either an unindexed
// record (invisible to listings) or a dangling index id (dropped by
// the pagination fetch) — an accepted, bounded inconsistency window.
package engine

import (
	"encoding/json"
	"log/slog"

	"relaychat/domain/event"
	"relaychat/hub"
	"relaychat/store"
)

// Store key namespaces. The *name/*email/*token keys are id aliases
// maintained alongside the primary record for unique lookups.
const (
	userKey         = "user:"
	userEmailKey    = "useremail:"
	channelKey      = "channel:"
	channelNameKey  = "channelname:"
	messageKey      = "msg:"
	conversationKey = "conv:"
	webhookKey      = "webhook:"
	webhookTokenKey = "webhooktoken:"

	channelIndexKey = "idx:channel:"
	threadIndexKey  = "idx:thread:"
	convIndexKey    = "idx:conv:"
)

type Engine struct {
	store *store.Store
	hub   *hub.Hub
	log   *slog.Logger
}

func New(st *store.Store, h *hub.Hub, log *slog.Logger) *Engine {
	return &Engine{store: st, hub: h, log: log}
}

// Bootstrap ensures the configured admin user and the General channel
// exist. It is idempotent and safe to run on every start.
func (e *Engine) Bootstrap(adminEmail string) error {
	admin, err := e.GetUserByEmail(adminEmail)
	if err != nil {
		admin, err = e.AddUser(adminEmail, "", true, true)
		if err != nil {
			return err
		}
		e.log.Info("bootstrap: admin user created", "email", adminEmail)
	}

	if _, err := e.GetChannelByName(generalName); err != nil {
		if _, err := e.CreateChannel(generalName, admin.ID); err != nil {
			return err
		}
		e.log.Info("bootstrap: General channel created")
	}
	return nil
}

func (e *Engine) emit(ev event.DomainEvent) {
	e.hub.Publish(ev)
}

// put marshals an entity and writes it under key.
func put[T any](e *Engine, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.store.Set(key, data, 0)
}

// get loads and unmarshals an entity; absent or undecodable records
// both report false.
func get[T any](e *Engine, key string) (T, bool) {
	var v T
	data, ok := e.store.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		e.log.Warn("record unmarshal failed, treating as absent", "key", key, "err", err)
		return v, false
	}
	return v, true
}

// listByPrefix loads every decodable entity under a key prefix.
func listByPrefix[T any](e *Engine, prefix string) ([]T, error) {
	raw, err := e.store.ListByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, data := range raw {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			e.log.Warn("skipping corrupt record in prefix scan", "prefix", prefix, "err", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
