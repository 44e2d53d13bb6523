package storage

import "context"

type namespaced struct {
	store  Store
	prefix string
}

// Namespace prefixes every key with prefix + "/". An empty prefix returns
// the store unchanged.
func Namespace(store Store, prefix string) Store {
	if prefix == "" {
		return store
	}
	return &namespaced{store: store, prefix: prefix + "/"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.store.Remove(ctx, n.prefix+key)
}
