package repository

import "github.com/doug-martin/goqu/v9"

// Querier is satisfied by *goqu.Database, *goqu.TxDatabase and
// goqu.DialectWrapper, so one query builder serves reads, locked reads
// inside a transaction and SQL assertions in tests.
type Querier interface {
	From(from ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
}

var (
	_ Querier = (*goqu.Database)(nil)
	_ Querier = (*goqu.TxDatabase)(nil)
)
