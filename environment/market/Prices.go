package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Prices is a history of daily stock prices. Rows of Data are days and
// columns are stocks, named by Symbols.
type Prices struct {
	Symbols []string
	Data    *mat.Dense
}

// LoadCSVFile loads a price history from a CSV file, see LoadCSV
func LoadCSVFile(path string) (Prices, error) {
	f, err := os.Open(path)
	if err != nil {
		return Prices{}, fmt.Errorf("loadCSVFile: %w", err)
	}
	defer f.Close()

	prices, err := LoadCSV(f)
	if err != nil {
		return Prices{}, fmt.Errorf("loadCSVFile: %v: %w", path, err)
	}
	return prices, nil
}

// LoadCSV reads a price history from CSV data. The first record must be
// a header naming each stock, and every following record holds the
// prices of all stocks on a single day, in chronological order.
func LoadCSV(r io.Reader) (Prices, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Prices{}, fmt.Errorf("loadCSV: missing header")
	} else if err != nil {
		return Prices{}, fmt.Errorf("loadCSV: could not read header: %w", err)
	}
	numStocks := len(header)
	symbols := make([]string, numStocks)
	for i := range header {
		symbols[i] = strings.TrimSpace(header[i])
	}

	var data []float64
	numDays := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return Prices{}, fmt.Errorf("loadCSV: day %v: %w", numDays, err)
		}

		for j, field := range record {
			price, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Prices{}, fmt.Errorf("loadCSV: day %v stock %v: %w",
					numDays, symbols[j], err)
			}
			if !validPrice(price) {
				return Prices{}, fmt.Errorf("loadCSV: day %v stock %v: "+
					"prices must be positive and finite \n\thave(%v)",
					numDays, symbols[j], price)
			}
			data = append(data, price)
		}
		numDays++
	}

	if numDays == 0 {
		return Prices{}, fmt.Errorf("loadCSV: no prices")
	}

	return Prices{
		Symbols: symbols,
		Data:    mat.NewDense(numDays, numStocks, data),
	}, nil
}

// Split splits a price history into two non-overlapping halves by day.
// The first half, of floor(days / 2) days, is used for training and the
// remaining days are used for testing.
func (p Prices) Split() (train, test *mat.Dense, err error) {
	numDays, numStocks := p.Data.Dims()
	numTrain := numDays / 2
	if numTrain < 2 || numDays-numTrain < 2 {
		return nil, nil, fmt.Errorf("split: need at least two days in "+
			"each half \n\thave(%v days)", numDays)
	}

	train = mat.DenseCopyOf(p.Data.Slice(0, numTrain, 0, numStocks))
	test = mat.DenseCopyOf(p.Data.Slice(numTrain, numDays, 0, numStocks))
	return train, test, nil
}
