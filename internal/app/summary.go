package app

import (
	"fmt"
	"io"
	"strings"

	"spreader/internal/binding"
	"spreader/internal/catalog"
	"spreader/internal/pkg/symbol"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderBinding writes an assembled binding as a table. Pairs are also shown
// in the native symbol format of their connector in snap.
func RenderBinding(w io.Writer, passID string, sb binding.StrategyBinding, snap catalog.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s  pass %s", sb.Strategy(), passID)
	t.AppendHeader(table.Row{"Role", "Market", "Handle", "Pair", "Symbol", "Base", "Quote"})
	for _, pair := range sb.MarketPairs() {
		appendRole(t, snap, binding.RoleMaker, pair.Maker)
		appendRole(t, snap, binding.RoleRef, pair.Ref)
		if pair.HasHedger() {
			appendRole(t, snap, binding.RoleHedger, pair.Hedger)
		}
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"order_amount", sb.OrderAmount().String()})
	t.AppendRow(table.Row{"order_spread", sb.OrderSpread().String()})
	t.AppendRow(table.Row{"status_report_interval", sb.StatusReportInterval().String()})
	t.AppendRow(table.Row{"logging_options", sb.LoggingFlags().String()})
	t.AppendRow(table.Row{"notify", sb.Notify()})
	t.AppendRow(table.Row{"required_exchanges", formatList(sb.RequiredExchanges())})
	t.AppendRow(table.Row{"required_assets", formatList(sb.RequiredAssets())})
	t.Render()
}

func appendRole(t table.Writer, snap catalog.Snapshot, role binding.Role, m binding.MarketTradingPair) {
	t.AppendRow(table.Row{string(role), m.Market.Name(), m.Market.ID(), m.TradingPair, exchangeSymbol(snap, m), m.BaseAsset, m.QuoteAsset})
}

// exchangeSymbol is the pair as the connector lists it.
func exchangeSymbol(snap catalog.Snapshot, m binding.MarketTradingPair) string {
	conn, ok := snap.Connector(m.Market.Name())
	if !ok {
		return m.TradingPair
	}
	return symbol.ConverterFor(conn.PairFormat).ToExchange(m.TradingPair)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// catalogBlock lists the connectors of snap, one per line.
func catalogBlock(snap catalog.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ market catalog v%d\n", snap.Version)
	for _, name := range snap.Names() {
		conn, _ := snap.Connector(name)
		pairs := "any pair"
		if conn.ListsPairs() {
			pairs = fmt.Sprintf("%d pairs", len(conn.Pairs))
		}
		fmt.Fprintf(&b, "  %s: %s", name, pairs)
		if ex := snap.ExamplePair(name); ex != "" {
			fmt.Fprintf(&b, ", e.g. %s", ex)
		}
		b.WriteString("\n")
	}
	return b.String()
}
