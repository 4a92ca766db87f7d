package zonestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/plant-care/internal/domain/zone"
)

// ValkeyStore persists the zone catalog as a single JSON document.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "zones"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Load(ctx context.Context) ([]zone.Zone, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.catalogKey()).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var zones []zone.Zone
	if err := json.Unmarshal([]byte(payload), &zones); err != nil {
		return nil, false, err
	}
	return zones, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, zones []zone.Zone) error {
	if zones == nil {
		zones = []zone.Zone{}
	}
	payload, err := json.Marshal(zones)
	if err != nil {
		return err
	}
	return s.client.Do(ctx, s.client.B().Set().Key(s.catalogKey()).Value(string(payload)).Build()).Error()
}

func (s *ValkeyStore) catalogKey() string {
	return fmt.Sprintf("%s:catalog", s.prefix)
}

var _ zone.Store = (*ValkeyStore)(nil)
