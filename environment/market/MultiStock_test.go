package market

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/rltrader/environment"
)

func singleStock(t *testing.T, investment float64, prices ...float64) (
	*MultiStock, []float64) {
	t.Helper()
	m, step, err := New(mat.NewDense(len(prices), 1, prices), investment)
	require.NoError(t, err)
	return m, step.Observation.RawVector().Data
}

func TestScenario(t *testing.T) {
	m, obs := singleStock(t, 100, 10, 12, 8)
	assert.Equal(t, []float64{0, 10, 100}, obs)

	step, info, err := m.Step(EncodeAction(Buy))
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 12, 4}, step.Observation.RawVector().Data)
	// 8 shares at 12 plus 4 cash is the initial 100
	assert.InDelta(t, 0.0, step.Reward, 1e-12)
	assert.False(t, step.Last())
	assert.InDelta(t, 100.0, info.PortfolioValue, 1e-12)

	step, info, err = m.Step(EncodeAction(Sell))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 8, 68}, step.Observation.RawVector().Data)
	assert.InDelta(t, -32.0, step.Reward, 1e-12)
	assert.True(t, step.Last())
	assert.InDelta(t, 68.0, info.PortfolioValue, 1e-12)
}

func TestEnumerateActions(t *testing.T) {
	for s := 1; s <= 4; s++ {
		t.Run(fmt.Sprintf("stocks=%v", s), func(t *testing.T) {
			actions := EnumerateActions(s)

			want := 1
			for i := 0; i < s; i++ {
				want *= 3
			}
			require.Len(t, actions, want)

			seen := make(map[string]bool)
			for i, action := range actions {
				require.Len(t, action, s)
				key := fmt.Sprint(action)
				assert.False(t, seen[key], "duplicate action %v", key)
				seen[key] = true

				assert.Equal(t, i, EncodeAction(action...))
			}

			// Enumeration is deterministic
			assert.Equal(t, actions, EnumerateActions(s))
		})
	}

	actions := EnumerateActions(3)
	assert.Equal(t, []Intent{Sell, Sell, Sell}, actions[0])
	assert.Equal(t, []Intent{Sell, Sell, Hold}, actions[1])
	assert.Equal(t, []Intent{Sell, Hold, Sell}, actions[3])
	assert.Equal(t, []Intent{Buy, Buy, Buy}, actions[26])
}

func TestSellAll(t *testing.T) {
	prices := mat.NewDense(4, 2, []float64{
		10, 20,
		11, 19,
		12, 18,
		13, 17,
	})
	m, _, err := New(prices, 1000)
	require.NoError(t, err)

	_, _, err = m.Step(EncodeAction(Buy, Buy))
	require.NoError(t, err)
	require.NotEqual(t, []int{0, 0}, m.Owned())

	before := m.Owned()
	cash := m.Cash()
	_, _, err = m.Step(EncodeAction(Sell, Sell))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0}, m.Owned())
	wantCash := cash + float64(before[0])*12 + float64(before[1])*18
	assert.InDelta(t, wantCash, m.Cash(), 1e-9)

	// Selling with nothing owned changes nothing but the prices
	cash = m.Cash()
	step, _, err := m.Step(EncodeAction(Sell, Sell))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, m.Owned())
	assert.InDelta(t, cash, m.Cash(), 1e-12)
	assert.InDelta(t, 0.0, step.Reward, 1e-12)
}

func TestBuyAffordability(t *testing.T) {
	prices := mat.NewDense(3, 3, []float64{
		3, 7, 11,
		3, 7, 11,
		5, 2, 13,
	})
	m, _, err := New(prices, 100)
	require.NoError(t, err)

	for _, action := range []int{
		EncodeAction(Buy, Hold, Buy),
		EncodeAction(Sell, Buy, Buy),
	} {
		_, _, err := m.Step(action)
		require.NoError(t, err)

		intents, err := m.Intents(action)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.Cash(), 0.0)
		for i, intent := range intents {
			if intent == Buy {
				assert.LessOrEqual(t, m.Cash(), m.Prices()[i],
					"stock %v still affordable", i)
			}
		}
	}
}

func TestBuyRoundRobin(t *testing.T) {
	prices := mat.NewDense(2, 2, []float64{
		1, 1,
		10, 10,
	})
	m, _, err := New(prices, 45)
	require.NoError(t, err)

	_, _, err = m.Step(EncodeAction(Buy, Buy))
	require.NoError(t, err)

	// 45 -> 35 -> 25 -> 15 -> 5, shares alternate starting at stock 0
	assert.Equal(t, []int{2, 2}, m.Owned())
	assert.InDelta(t, 5.0, m.Cash(), 1e-12)
}

func TestBuyRequiresStrictlyMoreCash(t *testing.T) {
	m, _ := singleStock(t, 10, 5, 10)
	_, _, err := m.Step(EncodeAction(Buy))
	require.NoError(t, err)

	assert.Equal(t, []int{0}, m.Owned())
	assert.InDelta(t, 10.0, m.Cash(), 1e-12)
}

// buyOneAtATime is the buy phase done one share at a time, returning
// the shares bought of each stock in buy and the cash left over
func buyOneAtATime(cash float64, prices []float64, buy []int) ([]int, float64) {
	owned := make([]int, len(prices))
	for bought := true; bought; {
		bought = false
		for _, i := range buy {
			if cash > prices[i] {
				owned[i]++
				cash -= prices[i]
				bought = true
			}
		}
	}
	return owned, cash
}

func TestBuyMatchesOneShareAtATime(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		// Whole number prices keep the arithmetic exact
		prices := make([]float64, 3)
		for i := range prices {
			prices[i] = float64(1 + rng.Intn(40))
		}
		cash := float64(rng.Intn(2000))
		intents := []Intent{Intent(rng.Intn(3)), Intent(rng.Intn(3)),
			Intent(rng.Intn(3))}

		data := append(append([]float64{}, prices...), prices...)
		m, _, err := New(mat.NewDense(2, 3, data), cash)
		require.NoError(t, err)
		_, _, err = m.Step(EncodeAction(intents...))
		require.NoError(t, err)

		var buy []int
		for i, intent := range intents {
			if intent == Buy {
				buy = append(buy, i)
			}
		}
		wantOwned, wantCash := buyOneAtATime(cash, prices, buy)
		assert.Equal(t, wantOwned, m.Owned(), "prices %v cash %v intents %v",
			prices, cash, intents)
		assert.InDelta(t, wantCash, m.Cash(), 1e-9)
	}
}

func TestBuyNearZeroPrice(t *testing.T) {
	m, _ := singleStock(t, 20000, 1, 1e-9)
	_, info, err := m.Step(EncodeAction(Buy))
	require.NoError(t, err)

	assert.Greater(t, m.Owned()[0], int(1e13))
	assert.GreaterOrEqual(t, m.Cash(), 0.0)
	assert.LessOrEqual(t, m.Cash(), 1e-9)
	assert.InDelta(t, 20000, info.PortfolioValue, 1e-6)
}

func TestTerminationRandomActions(t *testing.T) {
	prices := []float64{5, 6, 7, 8, 9, 10, 11}
	data := make([]float64, 0, 2*len(prices))
	for _, p := range prices {
		data = append(data, p, 20-p)
	}
	m, _, err := New(mat.NewDense(len(prices), 2, data), 50)
	require.NoError(t, err)

	actions, err := environment.NewUniformActions(m.ActionSpec(), 3)
	require.NoError(t, err)

	for episode := 0; episode < 20; episode++ {
		m.Reset()
		steps := 0
		for {
			step, _, err := m.Step(actions.Sample())
			require.NoError(t, err)
			require.GreaterOrEqual(t, m.Cash(), 0.0)
			steps++
			if step.Last() {
				break
			}
			require.Less(t, steps, len(prices), "episode did not end")
		}
		assert.Equal(t, len(prices)-1, steps)

		_, _, err := m.Step(actions.Sample())
		assert.True(t, errors.Is(err, ErrEpisodeOver))
	}
}

func TestTermination(t *testing.T) {
	prices := []float64{5, 6, 7, 8, 9, 10, 11}
	m, _ := singleStock(t, 50, prices...)

	for i := 0; i < 2; i++ {
		m.Reset()
		steps := 0
		for {
			step, _, err := m.Step(EncodeAction(Hold))
			require.NoError(t, err)
			steps++
			if step.Last() {
				break
			}
		}
		assert.Equal(t, len(prices)-1, steps)
		assert.Equal(t, len(prices)-1, m.CurrentStep())

		_, _, err := m.Step(EncodeAction(Hold))
		assert.True(t, errors.Is(err, ErrEpisodeOver))
	}
}

func TestInvalidAction(t *testing.T) {
	m, obs := singleStock(t, 100, 10, 12, 8)

	for _, action := range []int{-1, 3, 100} {
		_, _, err := m.Step(action)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidAction))

		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, action, actionErr.Action)
		assert.Equal(t, 3, actionErr.NumActions)
	}

	// Invalid actions do not change the state
	assert.Equal(t, 0, m.CurrentStep())
	assert.Equal(t, obs, m.observation().RawVector().Data)
}

func TestNewValidation(t *testing.T) {
	_, _, err := New(mat.NewDense(1, 2, []float64{1, 2}), 10)
	assert.Error(t, err)

	_, _, err = New(mat.NewDense(2, 1, []float64{1, 2}), -1)
	assert.Error(t, err)

	_, _, err = New(mat.NewDense(2, 1, []float64{1, 0}), 10)
	assert.Error(t, err)

	for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, _, err = New(mat.NewDense(3, 1, []float64{10, p, 8}), 100)
		assert.Error(t, err, "accepted price %v", p)
	}
}

func TestSpecs(t *testing.T) {
	prices := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	m, _, err := New(prices, 10)
	require.NoError(t, err)

	obsSpec := m.ObservationSpec()
	assert.Equal(t, 7, obsSpec.Features())
	assert.Equal(t, environment.Continuous, obsSpec.Cardinality)

	actionSpec := m.ActionSpec()
	assert.Equal(t, 27, actionSpec.NumActions())
	assert.Equal(t, environment.Discrete, actionSpec.Cardinality)
}

func TestLoadCSV(t *testing.T) {
	data := "A, B\n1.5,2\n3,4.25\n5,6\n"
	prices, err := LoadCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, prices.Symbols)
	r, c := prices.Data.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.25, prices.Data.At(1, 1))

	_, err = LoadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("A,B\n"))
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("A,B\n1,x\n"))
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("A,B\n1,2,3\n"))
	assert.Error(t, err)

	for _, p := range []string{"NaN", "Inf", "-Inf", "0", "-3"} {
		_, err = LoadCSV(strings.NewReader("A\n10\n" + p + "\n8\n"))
		assert.Error(t, err, "accepted price %v", p)
	}
}

func TestLoadCSVFile(t *testing.T) {
	prices, err := LoadCSVFile(filepath.Join("testdata", "prices.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSI", "SBUX"}, prices.Symbols)

	r, c := prices.Data.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 3, c)

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSplit(t *testing.T) {
	data := make([]float64, 7)
	for i := range data {
		data[i] = float64(i + 1)
	}
	prices := Prices{Symbols: []string{"A"}, Data: mat.NewDense(7, 1, data)}

	train, test, err := prices.Split()
	require.NoError(t, err)

	trainRows, _ := train.Dims()
	testRows, _ := test.Dims()
	assert.Equal(t, 3, trainRows)
	assert.Equal(t, 4, testRows)
	assert.Equal(t, 3.0, train.At(2, 0))
	assert.Equal(t, 4.0, test.At(0, 0))

	// Halves are copies
	train.Set(0, 0, 100)
	assert.Equal(t, 1.0, prices.Data.At(0, 0))

	short := Prices{Data: mat.NewDense(3, 1, []float64{1, 2, 3})}
	_, _, err = short.Split()
	assert.Error(t, err)
}
