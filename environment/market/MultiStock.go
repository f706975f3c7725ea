// Package market implements a multi-stock trading environment which
// replays a fixed history of daily stock prices.
package market

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/environment"
	"github.com/samuelfneumann/rltrader/timestep"
)

// MultiStock implements a trading environment over S stocks.
//
// Observations are vectors of size 2S + 1 made up of the number of shares
// owned of each stock, the current price of each stock, and the cash in
// hand:
//
//	[owned_0, ..., owned_S-1, price_0, ..., price_S-1, cash]
//
// Actions are integers in [0, 3^S), each an index into the lexicographic
// enumeration of (Sell, Hold, Buy) intents over all stocks, see
// EnumerateActions. Taking an action moves the environment to the next
// trading day and then executes the trade at that day's prices. The
// reward is the change in portfolio value over the step, and an episode
// ends on the last day of the price history.
//
// Trades follow a simple rule. Every stock marked Sell is sold in full,
// then the stocks marked Buy are bought one share at a time, cycling
// through them in ascending order, until none of them can be afforded.
// There is no short selling, no fractional shares and no transaction
// cost.
//
// A MultiStock is not safe for concurrent use.
type MultiStock struct {
	priceHistory      *mat.Dense // Rows are days, columns are stocks
	numDays           int
	numStocks         int
	initialInvestment float64

	curStep    int
	stockOwned []int
	stockPrice []float64
	cashInHand float64

	actionList [][]Intent
}

// New creates a new MultiStock environment over the price history
// prices, in which each row holds the prices of all stocks on a
// single day. The first TimeStep of the environment is returned
// alongside it.
func New(prices *mat.Dense, initialInvestment float64) (*MultiStock,
	timestep.TimeStep, error) {
	numDays, numStocks := prices.Dims()
	if numDays < 2 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: need at least "+
			"two days of prices \n\thave(%v)", numDays)
	}
	if initialInvestment < 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: initial "+
			"investment must be non-negative \n\thave(%v)", initialInvestment)
	}
	for i := 0; i < numDays; i++ {
		for j := 0; j < numStocks; j++ {
			if p := prices.At(i, j); !validPrice(p) {
				return nil, timestep.TimeStep{}, fmt.Errorf("new: prices "+
					"must be positive and finite \n\thave(%v) at day %v "+
					"stock %v", p, i, j)
			}
		}
	}

	m := &MultiStock{
		priceHistory:      mat.DenseCopyOf(prices),
		numDays:           numDays,
		numStocks:         numStocks,
		initialInvestment: initialInvestment,
		stockOwned:        make([]int, numStocks),
		stockPrice:        make([]float64, numStocks),
		actionList:        EnumerateActions(numStocks),
	}

	return m, m.Reset(), nil
}

// Reset resets the environment to the first day of the price history
// with no stocks owned and all money in cash.
func (m *MultiStock) Reset() timestep.TimeStep {
	m.curStep = 0
	for i := range m.stockOwned {
		m.stockOwned[i] = 0
	}
	mat.Row(m.stockPrice, m.curStep, m.priceHistory)
	m.cashInHand = m.initialInvestment

	return timestep.New(timestep.First, 0.0, m.observation(), m.curStep)
}

// Step takes an action in the environment. The returned Info holds the
// portfolio value after the trade.
func (m *MultiStock) Step(action int) (timestep.TimeStep, environment.Info,
	error) {
	if action < 0 || action >= len(m.actionList) {
		return timestep.TimeStep{}, environment.Info{}, &ActionError{
			Op:         "step",
			Action:     action,
			NumActions: len(m.actionList),
			Err:        ErrInvalidAction,
		}
	}
	if m.curStep >= m.numDays-1 {
		return timestep.TimeStep{}, environment.Info{},
			fmt.Errorf("step: %w", ErrEpisodeOver)
	}

	prevVal := m.Value()

	// Go to the next day, trades execute at that day's prices
	m.curStep++
	mat.Row(m.stockPrice, m.curStep, m.priceHistory)

	m.trade(action)

	curVal := m.Value()
	reward := curVal - prevVal

	stepType := timestep.Mid
	if m.curStep == m.numDays-1 {
		stepType = timestep.Last
	}

	step := timestep.New(stepType, reward, m.observation(), m.curStep)
	return step, environment.Info{PortfolioValue: curVal}, nil
}

// trade executes the trade described by action at the current prices.
// All sells are executed before any buys.
func (m *MultiStock) trade(action int) {
	intents := m.actionList[action]

	buyIndex := make([]int, 0, m.numStocks)
	for i, intent := range intents {
		switch intent {
		case Sell:
			m.cashInHand += m.stockPrice[i] * float64(m.stockOwned[i])
			m.stockOwned[i] = 0
		case Buy:
			buyIndex = append(buyIndex, i)
		}
	}

	// Buy one share of each stock in turn until no more shares of any
	// stock can be bought. A stock that cannot be afforded in one pass
	// never can be in a later one, since cash only decreases.
	for len(buyIndex) > 0 {
		// Whole passes in which every stock is bought are done at once
		cost := 0.0
		for _, i := range buyIndex {
			cost += m.stockPrice[i]
		}
		ratio := math.Min(m.cashInHand/cost, maxRounds)
		rounds := int(math.Ceil(ratio)) - 1
		for rounds > 0 && float64(rounds)*cost >= m.cashInHand {
			rounds--
		}
		if rounds > 0 {
			for _, i := range buyIndex {
				m.stockOwned[i] += rounds
			}
			m.cashInHand -= float64(rounds) * cost
		}

		// One pass in ascending order, dropping stocks which can no
		// longer be afforded
		affordable := buyIndex[:0]
		for _, i := range buyIndex {
			if m.cashInHand > m.stockPrice[i] {
				m.stockOwned[i]++
				m.cashInHand -= m.stockPrice[i]
				affordable = append(affordable, i)
			}
		}
		buyIndex = affordable
	}
}

// maxRounds bounds the number of whole buy passes done at once so that
// share counts stay exact
const maxRounds = 1 << 53

// validPrice returns whether p can be traded at
func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

// observation returns the current observation vector
func (m *MultiStock) observation() *mat.VecDense {
	obs := mat.NewVecDense(2*m.numStocks+1, nil)
	for i := 0; i < m.numStocks; i++ {
		obs.SetVec(i, float64(m.stockOwned[i]))
		obs.SetVec(m.numStocks+i, m.stockPrice[i])
	}
	obs.SetVec(2*m.numStocks, m.cashInHand)
	return obs
}

// Value returns the current value of the portfolio, the value of all
// stocks owned at the current prices plus the cash in hand
func (m *MultiStock) Value() float64 {
	value := m.cashInHand
	for i, owned := range m.stockOwned {
		value += float64(owned) * m.stockPrice[i]
	}
	return value
}

// Cash returns the cash in hand
func (m *MultiStock) Cash() float64 {
	return m.cashInHand
}

// Owned returns a copy of the number of shares owned of each stock
func (m *MultiStock) Owned() []int {
	owned := make([]int, m.numStocks)
	copy(owned, m.stockOwned)
	return owned
}

// Prices returns a copy of the current price of each stock
func (m *MultiStock) Prices() []float64 {
	prices := make([]float64, m.numStocks)
	copy(prices, m.stockPrice)
	return prices
}

// CurrentStep returns the index of the current day in the price history
func (m *MultiStock) CurrentStep() int {
	return m.curStep
}

// NumDays returns the number of days in the price history
func (m *MultiStock) NumDays() int {
	return m.numDays
}

// NumStocks returns the number of stocks traded
func (m *MultiStock) NumStocks() int {
	return m.numStocks
}

// Intents returns the per-stock intents of an action
func (m *MultiStock) Intents(action int) ([]Intent, error) {
	if action < 0 || action >= len(m.actionList) {
		return nil, &ActionError{
			Op:         "intents",
			Action:     action,
			NumActions: len(m.actionList),
			Err:        ErrInvalidAction,
		}
	}
	intents := make([]Intent, m.numStocks)
	copy(intents, m.actionList[action])
	return intents, nil
}

// ObservationSpec returns the observation specification of the
// environment
func (m *MultiStock) ObservationSpec() environment.Spec {
	features := 2*m.numStocks + 1
	shape := mat.NewVecDense(features, nil)

	lowerBound := mat.NewVecDense(features, nil)
	upperBound := mat.NewVecDense(features, nil)
	for i := 0; i < features; i++ {
		upperBound.SetVec(i, math.MaxFloat64)
	}

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (m *MultiStock) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{float64(len(m.actionList) - 1)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}
