package market

import (
	"github.com/samuelfneumann/rltrader/utils/intutils"
)

// Intent is what an action asks to do with a single stock
type Intent int

const (
	Sell Intent = iota
	Hold
	Buy
)

func (i Intent) String() string {
	switch i {
	case Sell:
		return "Sell"
	case Buy:
		return "Buy"
	default:
		return "Hold"
	}
}

// numIntents is the number of intents an action can have per stock
const numIntents = 3

// EnumerateActions returns all 3^numStocks actions for numStocks stocks
// in lexicographic order. Action i is the base-3 representation of i,
// with the most significant digit giving the intent for stock 0. For
// example, with 3 stocks:
//
//	0  => [Sell Sell Sell]
//	1  => [Sell Sell Hold]
//	2  => [Sell Sell Buy]
//	3  => [Sell Hold Sell]
//	...
//	26 => [Buy Buy Buy]
//
// Trained policies are keyed on these indices, so the order must never
// change.
func EnumerateActions(numStocks int) [][]Intent {
	numActions := intutils.Pow(numIntents, numStocks)
	actions := make([][]Intent, numActions)

	for i := range actions {
		action := make([]Intent, numStocks)
		code := i
		for stock := numStocks - 1; stock >= 0; stock-- {
			action[stock] = Intent(code % numIntents)
			code /= numIntents
		}
		actions[i] = action
	}
	return actions
}

// EncodeAction returns the index of the action with the given intents,
// the inverse of EnumerateActions.
func EncodeAction(intents ...Intent) int {
	code := 0
	for _, intent := range intents {
		code = code*numIntents + int(intent)
	}
	return code
}
