package journal

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=port.go -destination=../../mocks/mock_journal.go -package=mocks

// Repository port for persisting and querying journal entries
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Entry, error)
}
