// Package dbtest holds test doubles for the db package.
package dbtest

import (
	"context"

	"tokenbook/internal/db"
)

// Inline runs transactional callbacks directly with a nil handle. It is meant
// for services whose repositories are mocked and never touch the handle.
type Inline struct {
	Calls int
}

func (i *Inline) WithinTx(ctx context.Context, fn func(tx db.Queryer) error) error {
	i.Calls++
	return fn(nil)
}
