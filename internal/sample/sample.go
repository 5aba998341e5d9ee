// Package sample provides a small, fixed stock dataset and writes it in the
// formats the reader accepts. Nil metrics are written as nulls in Parquet
// and empty cells in CSV.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Stock is one row of the dataset. Field tags use the column names of the
// default screening output.
type Stock struct {
	Ticker               string   `parquet:"Ticker"`
	MarketCapitalization *float64 `parquet:"Market Capitalization,optional"`
	TotalDebt            *float64 `parquet:"Total Debt,optional"`
	TotalRevenue         *float64 `parquet:"Total Revenue,optional"`
	FreeCashflow3y       *float64 `parquet:"Free Cashflow 3years %,optional"`
	FreeCashflow4y       *float64 `parquet:"Free Cashflow 4years %,optional"`
	FreeCashflow         *float64 `parquet:"Free Cashflow,optional"`
	OperatingCashflow3y  *float64 `parquet:"Operating Cashflow 3years %,optional"`
	OperatingCashflow4y  *float64 `parquet:"Operating Cashflow 4years %,optional"`
	OperatingCashflow    *float64 `parquet:"Operating Cashflow,optional"`
	InvestingCashflow3y  *float64 `parquet:"Investing Cashflow 3years %,optional"`
	InvestingCashflow4y  *float64 `parquet:"Investing Cashflow 4years %,optional"`
	InvestingCashflow    *float64 `parquet:"Investing Cashflow,optional"`
	FinancingCashflow3y  *float64 `parquet:"Financing Cashflow 3years %,optional"`
	FinancingCashflow4y  *float64 `parquet:"Financing Cashflow 4years %,optional"`
	FinancingCashflow    *float64 `parquet:"Financing Cashflow,optional"`
	PERatio              *float64 `parquet:"P/E Ratio,optional"`
	ForwardPERatio       *float64 `parquet:"Forward P/E Ratio,optional"`
	PBRatio              *float64 `parquet:"P/B Ratio,optional"`
	DebtToEquityRatio    *float64 `parquet:"Debt-to-Equity Ratio,optional"`
	CurrentRatio         *float64 `parquet:"Current Ratio,optional"`
	QuickRatio           *float64 `parquet:"Quick Ratio,optional"`
	ROE                  *float64 `parquet:"ROE,optional"`
	ROA                  *float64 `parquet:"ROA,optional"`
	ProfitMargin         *float64 `parquet:"Profit Margin,optional"`
	OperatingMargin      *float64 `parquet:"Operating Margin,optional"`
	GrossMargin          *float64 `parquet:"Gross Margin,optional"`
}

// Columns lists the dataset columns in file order, identifier first.
var Columns = []string{
	"Ticker", "Market Capitalization", "Total Debt", "Total Revenue",
	"Free Cashflow 3years %", "Free Cashflow 4years %", "Free Cashflow",
	"Operating Cashflow 3years %", "Operating Cashflow 4years %", "Operating Cashflow",
	"Investing Cashflow 3years %", "Investing Cashflow 4years %", "Investing Cashflow",
	"Financing Cashflow 3years %", "Financing Cashflow 4years %", "Financing Cashflow",
	"P/E Ratio", "Forward P/E Ratio", "P/B Ratio", "Debt-to-Equity Ratio",
	"Current Ratio", "Quick Ratio", "ROE", "ROA", "Profit Margin",
	"Operating Margin", "Gross Margin",
}

// values returns the metrics of s in Columns order, without the identifier.
func (s Stock) values() []*float64 {
	return []*float64{
		s.MarketCapitalization, s.TotalDebt, s.TotalRevenue,
		s.FreeCashflow3y, s.FreeCashflow4y, s.FreeCashflow,
		s.OperatingCashflow3y, s.OperatingCashflow4y, s.OperatingCashflow,
		s.InvestingCashflow3y, s.InvestingCashflow4y, s.InvestingCashflow,
		s.FinancingCashflow3y, s.FinancingCashflow4y, s.FinancingCashflow,
		s.PERatio, s.ForwardPERatio, s.PBRatio, s.DebtToEquityRatio,
		s.CurrentRatio, s.QuickRatio, s.ROE, s.ROA, s.ProfitMargin,
		s.OperatingMargin, s.GrossMargin,
	}
}

func f(v float64) *float64 { return &v }

// Stocks returns the dataset. Rows are fixed so tests can rely on them:
//
//   - AAPL and MSFT have every metric set
//   - KO has no Total Debt
//   - XOM has a zero ROE
//   - TSLA has only a few metrics
func Stocks() []Stock {
	return []Stock{
		{
			Ticker: "AAPL", MarketCapitalization: f(3.4e12), TotalDebt: f(1.08e11), TotalRevenue: f(3.91e11),
			FreeCashflow3y: f(4.2), FreeCashflow4y: f(7.9), FreeCashflow: f(1.08e11),
			OperatingCashflow3y: f(3.1), OperatingCashflow4y: f(6.5), OperatingCashflow: f(1.18e11),
			InvestingCashflow3y: f(-12.5), InvestingCashflow4y: f(-8.2), InvestingCashflow: f(2.9e9),
			FinancingCashflow3y: f(1.4), FinancingCashflow4y: f(2.2), FinancingCashflow: f(-1.21e11),
			PERatio: f(28.5), ForwardPERatio: f(26.1), PBRatio: f(45.2), DebtToEquityRatio: f(1.45),
			CurrentRatio: f(0.87), QuickRatio: f(0.83), ROE: f(1.47), ROA: f(0.22), ProfitMargin: f(0.24),
			OperatingMargin: f(0.31), GrossMargin: f(0.46),
		},
		{
			Ticker: "MSFT", MarketCapitalization: f(3.1e12), TotalDebt: f(9.7e10), TotalRevenue: f(2.45e11),
			FreeCashflow3y: f(9.8), FreeCashflow4y: f(11.3), FreeCashflow: f(7.4e10),
			OperatingCashflow3y: f(10.2), OperatingCashflow4y: f(12.7), OperatingCashflow: f(1.19e11),
			InvestingCashflow3y: f(25.1), InvestingCashflow4y: f(30.4), InvestingCashflow: f(-9.7e10),
			FinancingCashflow3y: f(-3.3), FinancingCashflow4y: f(-1.9), FinancingCashflow: f(-3.7e10),
			PERatio: f(35.2), ForwardPERatio: f(30.4), PBRatio: f(11.8), DebtToEquityRatio: f(0.33),
			CurrentRatio: f(1.27), QuickRatio: f(1.25), ROE: f(0.36), ROA: f(0.19), ProfitMargin: f(0.36),
			OperatingMargin: f(0.45), GrossMargin: f(0.69),
		},
		{
			Ticker: "KO", MarketCapitalization: f(2.7e11), TotalRevenue: f(4.6e10),
			PERatio: f(25.8), ForwardPERatio: f(22.4), PBRatio: f(10.1), DebtToEquityRatio: f(1.62),
			CurrentRatio: f(1.03), QuickRatio: f(0.84), ROE: f(0.39), ROA: f(0.1), ProfitMargin: f(0.23),
			OperatingMargin: f(0.3), GrossMargin: f(0.6),
		},
		{
			Ticker: "XOM", MarketCapitalization: f(4.7e11), TotalDebt: f(4.1e10), TotalRevenue: f(3.4e11),
			PERatio: f(13.9), PBRatio: f(1.8), DebtToEquityRatio: f(0.15), ROE: f(0),
			ProfitMargin: f(0.1), GrossMargin: f(0.31),
		},
		{
			Ticker: "TSLA", MarketCapitalization: f(1.1e12), PERatio: f(98.3), ROE: f(0.2),
		},
	}
}

// WriteParquet writes stocks as a Parquet file.
func WriteParquet(w io.Writer, stocks []Stock) error {
	writer := parquet.NewGenericWriter[Stock](w)
	if _, err := writer.Write(stocks); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// WriteCSV writes stocks as CSV with a header row.
func WriteCSV(w io.Writer, stocks []Stock) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	record := make([]string, len(Columns))
	for _, s := range stocks {
		record[0] = s.Ticker
		for i, v := range s.values() {
			record[i+1] = ""
			if v != nil {
				record[i+1] = strconv.FormatFloat(*v, 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
