package persist

import "context"

// NullStore discards everything.
type NullStore struct{}

func (NullStore) Save(context.Context, string, Record) error    { return nil }
func (NullStore) Load(context.Context, string) (*Record, error) { return nil, nil }
func (NullStore) Delete(context.Context, string) error          { return nil }
func (NullStore) Close() error                                  { return nil }

var _ Store = NullStore{}
