package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Column pairs a destination column name with its producer.
type Column struct {
	Name     string
	Producer Producer
}

// Batch drives the producers of one entity in lock-step.
type Batch struct {
	columns []Column
	strict  bool
	logger  *zap.Logger
	failed  []*ColumnError
}

// NewBatch checks that every copied column has a non-copy source in the set.
// With strict set, the first column failure aborts the batch; otherwise the
// failing column is switched to nulls for the rest of the run.
func NewBatch(columns []Column, strict bool, logger *zap.Logger) (*Batch, error) {
	if err := checkCopies(columns); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{columns: columns, strict: strict, logger: logger}, nil
}

// Columns returns the column names in output order.
func (b *Batch) Columns() []string {
	names := make([]string, len(b.columns))
	for i, c := range b.columns {
		names[i] = c.Name
	}
	return names
}

// Failed returns the columns that were switched to nulls.
func (b *Batch) Failed() []*ColumnError {
	return b.failed
}

// Next produces n rows in column order.
func (b *Batch) Next(ctx context.Context, n int) ([][]interface{}, error) {
	values, err := produceColumns(ctx, b.columns, n, func(i int, err error) error {
		cerr := &ColumnError{Column: b.columns[i].Name, Err: err}
		if b.strict {
			return cerr
		}
		b.logger.Warn("column generation failed, emitting nulls", zap.String("column", cerr.Column), zap.Error(err))
		b.columns[i].Producer = nullProducer{}
		b.failed = append(b.failed, cerr)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, n)
	for r := range rows {
		row := make([]interface{}, len(b.columns))
		for c := range b.columns {
			row[c] = values[c][r]
		}
		rows[r] = row
	}
	return rows, nil
}

// produceColumns asks every producer for n values, then fills copied
// columns from their sources. onError decides whether a failing column
// aborts the call; when it returns nil the column yields nulls.
func produceColumns(ctx context.Context, columns []Column, n int, onError func(i int, err error) error) ([][]interface{}, error) {
	values := make([][]interface{}, len(columns))
	index := make(map[string]int, len(columns))

	for i, c := range columns {
		index[c.Name] = i
		if _, ok := c.Producer.(*copyProducer); ok {
			continue
		}
		vals, err := c.Producer.Produce(ctx, n)
		if err == nil && len(vals) != n {
			err = fmt.Errorf("produced %d values, %d requested", len(vals), n)
		}
		if err != nil {
			if herr := onError(i, err); herr != nil {
				return nil, herr
			}
			vals = make([]interface{}, n)
		}
		values[i] = vals
	}

	for i, c := range columns {
		if cp, ok := c.Producer.(*copyProducer); ok {
			values[i] = cp.copy(values[index[cp.source]])
		}
	}
	return values, nil
}

func checkCopies(columns []Column) error {
	producers := make(map[string]Producer, len(columns))
	for _, c := range columns {
		if _, dup := producers[c.Name]; dup {
			return fmt.Errorf("duplicate column %s", c.Name)
		}
		producers[c.Name] = c.Producer
	}
	for _, c := range columns {
		cp, ok := c.Producer.(*copyProducer)
		if !ok {
			continue
		}
		source, exists := producers[cp.source]
		if !exists {
			return fmt.Errorf("column %s copies unknown column %s", c.Name, cp.source)
		}
		if _, chained := source.(*copyProducer); chained {
			return fmt.Errorf("column %s copies %s, which is itself a copy", c.Name, cp.source)
		}
	}
	return nil
}
