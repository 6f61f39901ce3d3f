package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// withTx выполняет fn в транзакции; при ошибке или панике транзакция откатывается.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err, "не удалось начать транзакцию", nil)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return classify(err, "не удалось зафиксировать транзакцию", nil)
	}
	return nil
}

// BatchInserter копит строки и вставляет их одним INSERT на batchSize строк.
type BatchInserter struct {
	exec        sqlx.ExecerContext
	query       string
	suffix      string
	batchSize   int
	fieldsCount int
	values      []interface{}
	rowCount    int
}

// NewBatchInserter принимает начало запроса без VALUES и необязательный хвост (например ON CONFLICT).
func NewBatchInserter(exec sqlx.ExecerContext, baseQuery, suffix string, fieldsCount, batchSize int) *BatchInserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchInserter{
		exec:        exec,
		query:       baseQuery,
		suffix:      suffix,
		batchSize:   batchSize,
		fieldsCount: fieldsCount,
		values:      make([]interface{}, 0, batchSize*fieldsCount),
	}
}

func (bi *BatchInserter) Add(ctx context.Context, rowValues ...interface{}) error {
	if len(rowValues) != bi.fieldsCount {
		return fmt.Errorf("batch insert: ожидалось %d полей, получено %d", bi.fieldsCount, len(rowValues))
	}
	bi.values = append(bi.values, rowValues...)
	bi.rowCount++
	if bi.rowCount >= bi.batchSize {
		return bi.Flush(ctx)
	}
	return nil
}

func (bi *BatchInserter) Flush(ctx context.Context) error {
	if bi.rowCount == 0 {
		return nil
	}
	query := bi.statement()
	if _, err := bi.exec.ExecContext(ctx, query, bi.values...); err != nil {
		return classify(err, "не удалось выполнить пакетную вставку", nil)
	}
	bi.values = bi.values[:0]
	bi.rowCount = 0
	return nil
}

// statement строит запрос вида "... VALUES ($1, $2), ($3, $4) <suffix>".
func (bi *BatchInserter) statement() string {
	var b strings.Builder
	b.WriteString(bi.query)
	b.WriteString(" VALUES ")
	for i := 0; i < bi.rowCount; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < bi.fieldsCount; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(i*bi.fieldsCount + j + 1))
		}
		b.WriteByte(')')
	}
	if bi.suffix != "" {
		b.WriteByte(' ')
		b.WriteString(bi.suffix)
	}
	return b.String()
}
