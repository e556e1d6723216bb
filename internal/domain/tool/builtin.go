package tool

import (
	"context"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

const (
	BuiltinSummarizeDataset = "summarize_dataset"
	BuiltinComputeMean      = "compute_mean"
	BuiltinComputeMedian    = "compute_median"
	BuiltinComputeStd       = "compute_std"
	BuiltinGetStockPrice    = "get_stock_price"
)

// DatasetAccessor is the read-only view of the dataset the tools need.
type DatasetAccessor interface {
	Summarize() dataset.Summary
	ColumnStatistic(ctx context.Context, column string, op dataset.Statistic) (float64, error)
}

type BuiltinServices struct {
	Dataset DatasetAccessor
	Quotes  quote.Provider
}

var columnParam = Param{Name: "column", Description: "Name of a numeric column", Required: true}

// BuiltinDescriptors is the explicit list of tools served at start-up.
func BuiltinDescriptors(services BuiltinServices) []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        BuiltinSummarizeDataset,
			Description: "Summarize the dataset: number of rows, columns, and column names.",
			Executor:    NewSummarizeDatasetExecutor(services.Dataset),
		},
		{
			Name:        BuiltinComputeMean,
			Description: "Compute the mean of a numeric column.",
			Params:      []Param{columnParam},
			Executor:    NewColumnStatisticExecutor(services.Dataset, dataset.StatMean),
		},
		{
			Name:        BuiltinComputeMedian,
			Description: "Compute the median of a numeric column.",
			Params:      []Param{columnParam},
			Executor:    NewColumnStatisticExecutor(services.Dataset, dataset.StatMedian),
		},
		{
			Name:        BuiltinComputeStd,
			Description: "Compute the sample standard deviation of a numeric column.",
			Params:      []Param{columnParam},
			Executor:    NewColumnStatisticExecutor(services.Dataset, dataset.StatStdDev),
		},
		{
			Name:        BuiltinGetStockPrice,
			Description: "Fetch the latest stock price for a given ticker symbol.",
			Params:      []Param{{Name: "symbol", Description: "Ticker symbol, e.g. IBM", Required: true}},
			Executor:    NewStockPriceExecutor(services.Quotes),
		},
	}
}

// RegisterBuiltins registers every builtin tool on registry.
func RegisterBuiltins(registry *ToolRegistry, services BuiltinServices) error {
	for _, d := range BuiltinDescriptors(services) {
		if err := registry.Register(d); err != nil {
			return err
		}
	}
	return nil
}
