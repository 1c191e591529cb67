package repository

import "context"

// TxRepos exposes repositories bound to a single transaction.
type TxRepos interface {
	Reports() ReportRepository
	Responses() ResponseRepository
}

// Transactor runs fn inside one transaction; every write made through the
// supplied repositories commits together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepos) error) error
}
