package statusview

import "context"

// NullStatusStore is a no-op implementation
type NullStatusStore struct{}

func NewNullStatusStore() *NullStatusStore {
	return &NullStatusStore{}
}

func (s *NullStatusStore) SaveStatus(ctx context.Context, status *Status) error {
	return nil
}

func (s *NullStatusStore) LoadStatus(ctx context.Context, name string) (*Status, error) {
	return nil, nil
}

func (s *NullStatusStore) DeleteStatus(ctx context.Context, name string) error {
	return nil
}

func (s *NullStatusStore) ListStatuses(ctx context.Context) ([]*StatusSummary, error) {
	return []*StatusSummary{}, nil
}
