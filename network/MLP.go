// Package network implements neural network function approximators
// built on Gorgonia computational graphs.
package network

import (
	"encoding/gob"
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron which predicts numOutputs
// values for each row of a batch of inputs, such as the action values of
// each action in a batch of states.
//
// Weights are learned in a training graph with a fixed batch size. Its
// cost is the mean squared error between the predictions and a batch of
// targets, and each call to Fit takes a single step of the configured
// solver on that cost. Predictions for any batch size are computed by
// separate inference graphs, built the first time a batch size is
// requested, whose weights are kept in sync with the training graph.
//
// An MLP is not safe for concurrent use.
type MLP struct {
	numInputs   int
	numOutputs  int
	batchSize   int
	hiddenSizes []int
	activations []*Activation

	// Training graph
	g          *G.ExprGraph
	input      *G.Node
	target     *G.Node
	layers     []*fcLayer
	prediction *G.Node
	loss       *G.Node
	lossVal    G.Value
	learnables G.Nodes
	model      []G.ValueGrad
	vm         G.VM
	solver     G.Solver

	// version counts weight updates so that predictors know when they
	// need to copy the weights of the training graph
	version    int
	predictors map[int]*predictor
}

// NewMLP creates and returns a new MLP taking features inputs and
// predicting outputs values per input row. The network is trained with
// batches of batchSize rows.
func NewMLP(features, outputs, batchSize int, c Config) (*MLP, error) {
	if features < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features and outputs must be "+
			"positive \n\thave(%v, %v)", features, outputs)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newMLP: batch size must be positive "+
			"\n\thave(%v)", batchSize)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	init, err := c.InitWFn.Create()
	if err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}
	solver, err := c.Solver.Create()
	if err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	// Add the final linear layer predicting the outputs
	hiddenSizes := append([]int{}, c.HiddenSizes...)
	activations := append([]*Activation{}, c.Activations...)
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	acts := append(append([]*Activation{}, activations...), Identity())

	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batchSize, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))
	target := G.NewMatrix(g, tensor.Float64, G.WithShape(batchSize, outputs),
		G.WithName("target"), G.WithInit(G.Zeroes()))

	layers := newFCLayers(g, features, sizes, acts, init)
	prediction, err := forward(input, layers)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %w",
			err)
	}

	// Mean squared error between the predictions and targets
	losses := G.Must(G.Sub(prediction, target))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	learnables := make(G.Nodes, 0, 2*len(layers))
	for _, layer := range layers {
		learnables = append(learnables, layer.learnables()...)
	}
	model := make([]G.ValueGrad, len(learnables))
	for i, node := range learnables {
		model[i] = node
	}

	if _, err := G.Grad(cost, learnables...); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute gradient: %w", err)
	}

	m := &MLP{
		numInputs:   features,
		numOutputs:  outputs,
		batchSize:   batchSize,
		hiddenSizes: hiddenSizes,
		activations: activations,
		g:           g,
		input:       input,
		target:      target,
		layers:      layers,
		prediction:  prediction,
		loss:        cost,
		learnables:  learnables,
		model:       model,
		solver:      solver,
		predictors:  make(map[int]*predictor),
	}
	G.Read(m.loss, &m.lossVal)
	m.vm = G.NewTapeMachine(g, G.BindDualValues(learnables...))

	return m, nil
}

// forward adds the forward pass through all layers to the graph of
// input
func forward(input *G.Node, layers []*fcLayer) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("layer %v: %w", i, err)
		}
	}
	return pred, nil
}

// Features returns the number of features in a single input row
func (m *MLP) Features() int {
	return m.numInputs
}

// Outputs returns the number of values predicted per input row
func (m *MLP) Outputs() int {
	return m.numOutputs
}

// BatchSize returns the batch size used for training
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Loss returns the mean squared error computed by the last call to Fit
func (m *MLP) Loss() float64 {
	if m.lossVal == nil {
		return 0
	}
	return m.lossVal.Data().(float64)
}

// Predict returns the predictions for a batch of batch input rows
// stored in row-major order in states. The returned predictions are
// batch rows of Outputs() values in row-major order.
func (m *MLP) Predict(states []float64, batch int) ([]float64, error) {
	if batch < 1 {
		return nil, fmt.Errorf("predict: batch size must be positive "+
			"\n\thave(%v)", batch)
	}
	if len(states) != batch*m.numInputs {
		return nil, fmt.Errorf("predict: invalid number of inputs "+
			"\n\twant(%v)\n\thave(%v)", batch*m.numInputs, len(states))
	}

	p, err := m.predictorFor(batch)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if p.version != m.version {
		p.sync(m)
	}

	inputTensor := tensor.New(
		tensor.WithBacking(states),
		tensor.WithShape(batch, m.numInputs),
	)
	if err := G.Let(p.input, inputTensor); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %w", err)
	}

	if err := p.vm.RunAll(); err != nil {
		p.vm.Reset()
		return nil, fmt.Errorf("predict: %w", err)
	}
	out := make([]float64, batch*m.numOutputs)
	copy(out, p.predVal.Data().([]float64))
	p.vm.Reset()

	return out, nil
}

// Fit takes a single gradient step on the mean squared error between
// the predictions for states and targets. Both are given in row-major
// order and batch must equal BatchSize().
func (m *MLP) Fit(states, targets []float64, batch int) error {
	if batch != m.batchSize {
		return fmt.Errorf("fit: invalid batch size \n\twant(%v)\n\thave(%v)",
			m.batchSize, batch)
	}
	if len(states) != batch*m.numInputs {
		return fmt.Errorf("fit: invalid number of inputs \n\twant(%v)"+
			"\n\thave(%v)", batch*m.numInputs, len(states))
	}
	if len(targets) != batch*m.numOutputs {
		return fmt.Errorf("fit: invalid number of targets \n\twant(%v)"+
			"\n\thave(%v)", batch*m.numOutputs, len(targets))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(states),
		tensor.WithShape(batch, m.numInputs),
	)
	if err := G.Let(m.input, inputTensor); err != nil {
		return fmt.Errorf("fit: could not set input: %w", err)
	}
	targetTensor := tensor.New(
		tensor.WithBacking(targets),
		tensor.WithShape(batch, m.numOutputs),
	)
	if err := G.Let(m.target, targetTensor); err != nil {
		return fmt.Errorf("fit: could not set targets: %w", err)
	}

	if err := m.vm.RunAll(); err != nil {
		m.vm.Reset()
		return fmt.Errorf("fit: %w", err)
	}
	if err := m.solver.Step(m.model); err != nil {
		m.vm.Reset()
		return fmt.Errorf("fit: could not step solver: %w", err)
	}
	m.vm.Reset()
	m.version++

	return nil
}

// Weights returns a copy of the weights of each layer, ordered as
// weights then bias of the first layer, weights then bias of the second
// layer, and so on.
func (m *MLP) Weights() [][]float64 {
	weights := make([][]float64, len(m.learnables))
	for i, node := range m.learnables {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64{}, data...)
	}
	return weights
}

// SetWeights sets the weights of each layer, ordered as returned by
// Weights.
func (m *MLP) SetWeights(weights [][]float64) error {
	if len(weights) != len(m.learnables) {
		return fmt.Errorf("setWeights: invalid number of weight tensors "+
			"\n\twant(%v)\n\thave(%v)", len(m.learnables), len(weights))
	}
	for i, node := range m.learnables {
		data := node.Value().Data().([]float64)
		if len(weights[i]) != len(data) {
			return fmt.Errorf("setWeights: invalid size of weight tensor %v"+
				"\n\twant(%v)\n\thave(%v)", i, len(data), len(weights[i]))
		}
	}

	for i, node := range m.learnables {
		copy(node.Value().Data().([]float64), weights[i])
	}
	m.version++
	return nil
}

// mlpData is the persisted form of an MLP
type mlpData struct {
	Inputs      int
	Outputs     int
	HiddenSizes []int
	Activations []*Activation
	Weights     [][]float64
}

// Save gob encodes the architecture and weights of the MLP to a file
func (m *MLP) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer file.Close()

	data := mlpData{
		Inputs:      m.numInputs,
		Outputs:     m.numOutputs,
		HiddenSizes: m.hiddenSizes,
		Activations: m.activations,
		Weights:     m.Weights(),
	}
	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode network: %w", err)
	}
	return file.Close()
}

// Load sets the weights of the MLP to those saved in a file by Save.
// The saved network must have the same architecture as the MLP.
func (m *MLP) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer file.Close()

	var data mlpData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("load: could not decode network: %w", err)
	}

	if data.Inputs != m.numInputs || data.Outputs != m.numOutputs {
		return fmt.Errorf("load: saved network has %v inputs and %v "+
			"outputs \n\twant(%v, %v)", data.Inputs, data.Outputs,
			m.numInputs, m.numOutputs)
	}
	if len(data.HiddenSizes) != len(m.hiddenSizes) ||
		len(data.Activations) != len(m.activations) {
		return fmt.Errorf("load: saved network has hidden layers %v "+
			"\n\twant(%v)", data.HiddenSizes, m.hiddenSizes)
	}
	for i := range m.hiddenSizes {
		if data.HiddenSizes[i] != m.hiddenSizes[i] ||
			data.Activations[i].String() != m.activations[i].String() {
			return fmt.Errorf("load: saved network has hidden layers %v "+
				"with activations %v \n\twant(%v, %v)", data.HiddenSizes,
				data.Activations, m.hiddenSizes, m.activations)
		}
	}

	if err := m.SetWeights(data.Weights); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// predictor is an inference graph of an MLP with a specific batch size
type predictor struct {
	input      *G.Node
	learnables G.Nodes
	predVal    G.Value
	vm         G.VM
	version    int
}

// predictorFor returns the predictor for a batch size, creating it if
// needed
func (m *MLP) predictorFor(batch int) (*predictor, error) {
	if p, ok := m.predictors[batch]; ok {
		return p, nil
	}

	sizes := append(append([]int{}, m.hiddenSizes...), m.numOutputs)
	acts := append(append([]*Activation{}, m.activations...), Identity())

	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, m.numInputs),
		G.WithName("input"), G.WithInit(G.Zeroes()))
	layers := newFCLayers(g, m.numInputs, sizes, acts, G.Zeroes())
	prediction, err := forward(input, layers)
	if err != nil {
		return nil, fmt.Errorf("could not build predictor for batch size "+
			"%v: %w", batch, err)
	}

	learnables := make(G.Nodes, 0, 2*len(layers))
	for _, layer := range layers {
		learnables = append(learnables, layer.learnables()...)
	}

	p := &predictor{
		input:      input,
		learnables: learnables,
		version:    -1,
	}
	G.Read(prediction, &p.predVal)
	p.vm = G.NewTapeMachine(g)

	m.predictors[batch] = p
	return p, nil
}

// sync copies the weights of the training graph into the predictor
func (p *predictor) sync(m *MLP) {
	for i, node := range m.learnables {
		src := node.Value().Data().([]float64)
		copy(p.learnables[i].Value().Data().([]float64), src)
	}
	p.version = m.version
}
