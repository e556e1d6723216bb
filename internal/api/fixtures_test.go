package api

import (
	"context"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

type stubQuotes struct{}

func (stubQuotes) Fetch(_ context.Context, symbol string) (*quote.StockQuote, error) {
	if symbol == "" {
		return nil, quote.ErrSymbolNotFound
	}
	return &quote.StockQuote{Symbol: symbol, Price: "185.3000"}, nil
}

type apiFixture struct {
	dataset    *dataset.Dataset
	dispatcher *tool.Dispatcher
	bus        *eventbus.Bus
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIFixtureFromCSV(t, "region,revenue\nNorth,10\nSouth,20\nEast,30\n")
}

func newAPIFixtureFromCSV(t *testing.T, csv string) *apiFixture {
	t.Helper()
	ds, err := dataset.ReadCSV(context.Background(), strings.NewReader(csv), "test.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	t.Cleanup(func() { ds.Close() })

	registry := tool.NewToolRegistry()
	if err := tool.RegisterBuiltins(registry, tool.BuiltinServices{Dataset: ds, Quotes: stubQuotes{}}); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	bus := eventbus.New()
	t.Cleanup(bus.Close)

	return &apiFixture{
		dataset:    ds,
		dispatcher: tool.NewDispatcher(registry, tool.WithEventBus(bus)),
		bus:        bus,
	}
}

func (f *apiFixture) router() Dependencies {
	return Dependencies{Dispatcher: f.dispatcher, Dataset: f.dataset, Version: "test"}
}
