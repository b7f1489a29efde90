// Package prefs persists small user preferences (selected network, custom RPC
// URL, theme) in a key-value store.
package prefs

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("preference not found")

// Store is the key-value collaborator used by sessions.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// namespaced prefixes every key with a fixed scope.
type namespaced struct {
	store  Store
	prefix string
}

// Namespace scopes all keys of store under prefix, e.g. "session/<id>".
func Namespace(store Store, prefix string) Store {
	return &namespaced{
		store:  store,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}
