package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

var ErrBuiltinExecutionFailed = errors.New("builtin tool execution failed")

type SummarizeDatasetExecutor struct{ ds DatasetAccessor }

func NewSummarizeDatasetExecutor(ds DatasetAccessor) ToolExecutor {
	return &SummarizeDatasetExecutor{ds: ds}
}

func (e *SummarizeDatasetExecutor) Execute(_ context.Context, _ Arguments) (any, error) {
	if e.ds == nil {
		return nil, fmt.Errorf("%w: dataset not configured", ErrBuiltinExecutionFailed)
	}
	return e.ds.Summarize().String(), nil
}

type ColumnStatisticExecutor struct {
	ds DatasetAccessor
	op dataset.Statistic
}

func NewColumnStatisticExecutor(ds DatasetAccessor, op dataset.Statistic) ToolExecutor {
	return &ColumnStatisticExecutor{ds: ds, op: op}
}

func (e *ColumnStatisticExecutor) Execute(ctx context.Context, args Arguments) (any, error) {
	if e.ds == nil {
		return nil, fmt.Errorf("%w: dataset not configured", ErrBuiltinExecutionFailed)
	}
	// Column names are matched exactly, surrounding whitespace included.
	v, err := e.ds.ColumnStatistic(ctx, args["column"], e.op)
	if err != nil {
		return nil, err
	}
	return v, nil
}

type StockPriceExecutor struct{ quotes quote.Provider }

func NewStockPriceExecutor(quotes quote.Provider) ToolExecutor {
	return &StockPriceExecutor{quotes: quotes}
}

func (e *StockPriceExecutor) Execute(ctx context.Context, args Arguments) (any, error) {
	if e.quotes == nil {
		return nil, fmt.Errorf("%w: quote provider not configured", ErrBuiltinExecutionFailed)
	}
	q, err := e.quotes.Fetch(ctx, args.Get("symbol"))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("Latest price for %s: $%s", q.Symbol, q.Price), nil
}
