package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

type stubQuotes struct {
	price string
	err   error
}

func (s stubQuotes) Fetch(_ context.Context, symbol string) (*quote.StockQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &quote.StockQuote{Symbol: symbol, Price: s.price}, nil
}

const testCSV = "region,revenue\nNorth,10\nSouth,20\nEast,30\n"

// overflowCSV has columns whose statistics are not finite.
const overflowCSV = "x,y\n1e308,inf\n1e308,1\n"

func mustOpenTestDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	return mustReadCSV(t, testCSV)
}

func mustReadCSV(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(context.Background(), strings.NewReader(csv), "test.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func newTestDispatcher(t *testing.T, quotes quote.Provider) *tool.Dispatcher {
	t.Helper()
	return newCSVDispatcher(t, testCSV, quotes)
}

func newCSVDispatcher(t *testing.T, csv string, quotes quote.Provider) *tool.Dispatcher {
	t.Helper()
	registry := tool.NewToolRegistry()
	err := tool.RegisterBuiltins(registry, tool.BuiltinServices{
		Dataset: mustReadCSV(t, csv),
		Quotes:  quotes,
	})
	if err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return tool.NewDispatcher(registry)
}
