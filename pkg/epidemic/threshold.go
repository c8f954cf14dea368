package epidemic

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/cmplx"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/sir-influence/pkg/graph"
)

var (
	// ErrEigenDecomposition is returned when the adjacency spectrum cannot be computed
	ErrEigenDecomposition = errors.New("eigenvalue decomposition did not converge")

	// ErrUnknownMethod is returned for an unrecognized threshold method name
	ErrUnknownMethod = errors.New("unknown threshold method")
)

// Method selects how the epidemic threshold is estimated
type Method string

const (
	// MethodSpectral uses 1/lambda_max of the adjacency matrix
	MethodSpectral Method = "spectral"
	// MethodHMF uses the heterogeneous mean-field estimate <k>/(<k^2>-<k>)
	MethodHMF Method = "hmf"
	// MethodMeanField uses <k>/<k^2>
	MethodMeanField Method = "mean-field"
)

// ParseMethod converts a configuration string to a Method
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodSpectral, MethodHMF, MethodMeanField:
		return m, nil
	case "":
		return MethodSpectral, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Threshold is either a finite critical infection rate or undefined.
// The zero value is undefined.
type Threshold struct {
	value   float64
	leading float64
	defined bool
	method  Method
}

// Finite returns a defined threshold
func Finite(value float64) Threshold {
	return Threshold{value: value, defined: true}
}

// Undefined returns the threshold of a graph with no transmission paths
func Undefined() Threshold {
	return Threshold{}
}

// Value returns the threshold and whether it is defined
func (t Threshold) Value() (float64, bool) {
	return t.value, t.defined
}

// IsDefined reports whether the threshold is finite
func (t Threshold) IsDefined() bool { return t.defined }

// LeadingEigenvalue returns the spectral radius the threshold was derived from.
// It is zero for non-spectral methods.
func (t Threshold) LeadingEigenvalue() float64 { return t.leading }

// Method returns the estimator that produced the threshold
func (t Threshold) Method() Method { return t.method }

func (t Threshold) String() string {
	if !t.defined {
		return "undefined"
	}
	return strconv.FormatFloat(t.value, 'g', -1, 64)
}

// MarshalJSON encodes an undefined threshold as null
func (t Threshold) MarshalJSON() ([]byte, error) {
	if !t.defined {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// Estimate computes the threshold with the given method
func Estimate(g *graph.Graph, method Method) (Threshold, error) {
	switch method {
	case MethodSpectral, "":
		return EstimateThreshold(g)
	case MethodHMF:
		return DegreeThreshold(g), nil
	case MethodMeanField:
		return MeanFieldThreshold(g), nil
	default:
		return Undefined(), fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// EstimateThreshold returns 1/lambda_max of the graph's adjacency matrix.
// Graphs with no nodes or a non-positive leading eigenvalue yield an
// undefined threshold.
func EstimateThreshold(g *graph.Graph) (Threshold, error) {
	if g.NumNodes == 0 {
		return Undefined(), nil
	}

	leading, err := LeadingEigenvalue(AdjacencyMatrix(g))
	if err != nil {
		return Undefined(), err
	}
	if leading <= 0 {
		return Undefined(), nil
	}

	return Threshold{
		value:   1.0 / leading,
		leading: leading,
		defined: true,
		method:  MethodSpectral,
	}, nil
}

// AdjacencyMatrix builds the symmetric adjacency matrix of a graph in node
// order. A self-loop sets its diagonal entry to 1.
func AdjacencyMatrix(g *graph.Graph) *mat.SymDense {
	n := g.NumNodes
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for _, j := range g.Neighbors(i) {
			if j >= i {
				a.SetSym(i, j, 1)
			}
		}
	}
	return a
}

// LeadingEigenvalue returns the largest eigenvalue of a symmetric matrix, or
// the spectral radius (largest modulus) of any other square matrix.
func LeadingEigenvalue(a mat.Matrix) (float64, error) {
	r, c := a.Dims()
	if r != c {
		return 0, fmt.Errorf("adjacency matrix is not square: %dx%d", r, c)
	}

	if sym, ok := a.(mat.Symmetric); ok {
		var es mat.EigenSym
		if !es.Factorize(sym, false) {
			return 0, fmt.Errorf("symmetric %dx%d matrix: %w", r, c, ErrEigenDecomposition)
		}
		values := es.Values(nil)
		// Values are returned in ascending order
		return values[len(values)-1], nil
	}

	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return 0, fmt.Errorf("general %dx%d matrix: %w", r, c, ErrEigenDecomposition)
	}
	radius := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > radius {
			radius = m
		}
	}
	return radius, nil
}

// DegreeThreshold returns the heterogeneous mean-field threshold <k>/(<k^2>-<k>)
func DegreeThreshold(g *graph.Graph) Threshold {
	k, k2, ok := degreeMoments(g)
	if !ok || k2-k <= 0 {
		return Undefined()
	}
	return Threshold{value: k / (k2 - k), defined: true, method: MethodHMF}
}

// MeanFieldThreshold returns <k>/<k^2>
func MeanFieldThreshold(g *graph.Graph) Threshold {
	k, k2, ok := degreeMoments(g)
	if !ok || k2 <= 0 {
		return Undefined()
	}
	return Threshold{value: k / k2, defined: true, method: MethodMeanField}
}

func degreeMoments(g *graph.Graph) (float64, float64, bool) {
	if g.NumNodes == 0 {
		return 0, 0, false
	}
	degrees := g.Degrees()
	squares := make([]float64, len(degrees))
	for i, d := range degrees {
		squares[i] = d * d
	}
	return stat.Mean(degrees, nil), stat.Mean(squares, nil), true
}
