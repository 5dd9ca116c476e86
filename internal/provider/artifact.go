package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"estimator/internal/features"
)

// Artifact kinds
const (
	KindLinear = "linear"
	KindTree   = "tree"
	KindForest = "forest"
)

// TreeNode is one node of a regression tree. Inner nodes send x[Feature] <=
// Threshold to Left and everything else to Right.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
}

func (n *TreeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// validate checks that every inner node has both children and returns the
// largest feature index used.
func (n *TreeNode) validate() (int, error) {
	if n == nil {
		return -1, eris.New("nil tree node")
	}
	if n.Leaf {
		return -1, nil
	}
	if n.Feature < 0 {
		return -1, eris.Errorf("negative feature index %d", n.Feature)
	}
	if n.Left == nil || n.Right == nil {
		return -1, eris.Errorf("split on feature %d is missing a branch", n.Feature)
	}
	maxLeft, err := n.Left.validate()
	if err != nil {
		return -1, err
	}
	maxRight, err := n.Right.validate()
	if err != nil {
		return -1, err
	}
	return max(n.Feature, maxLeft, maxRight), nil
}

// Artifact is the JSON export of a trained regression model.
type Artifact struct {
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	FeatureNames []string    `json:"feature_names,omitempty"`
	Intercept    float64     `json:"intercept,omitempty"`
	Coefficients []float64   `json:"coefficients,omitempty"`
	Trees        []*TreeNode `json:"trees,omitempty"`
	Metrics      Metrics     `json:"metrics"`
	TrainedOn    int         `json:"trained_on,omitempty"`
	Updated      string      `json:"updated,omitempty"`

	source string
	width  int
}

// ParseArtifact decodes and validates an artifact.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrap(err, "provider: decode artifact")
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ReadArtifactFile reads and parses the artifact at path.
func ReadArtifactFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read artifact %s", path)
	}
	a, err := ParseArtifact(data)
	if err != nil {
		return nil, err
	}
	a.source = path
	return a, nil
}

func (a *Artifact) validate() error {
	switch a.Kind {
	case KindLinear:
		if len(a.Coefficients) == 0 {
			return eris.New("provider: linear artifact has no coefficients")
		}
		if a.FeatureNames != nil && len(a.FeatureNames) != len(a.Coefficients) {
			return eris.Errorf("provider: %d feature names for %d coefficients", len(a.FeatureNames), len(a.Coefficients))
		}
		a.width = len(a.Coefficients)
	case KindTree, KindForest:
		if len(a.Trees) == 0 {
			return eris.Errorf("provider: %s artifact has no trees", a.Kind)
		}
		maxFeature := -1
		for i, tree := range a.Trees {
			m, err := tree.validate()
			if err != nil {
				return eris.Wrapf(err, "provider: tree %d", i)
			}
			maxFeature = max(maxFeature, m)
		}
		a.width = maxFeature + 1
		if a.FeatureNames != nil {
			if len(a.FeatureNames) < a.width {
				return eris.Errorf("provider: trees use feature %d but only %d feature names are given", maxFeature, len(a.FeatureNames))
			}
			a.width = len(a.FeatureNames)
		}
	default:
		return eris.Errorf("provider: unknown artifact kind %q", a.Kind)
	}
	return nil
}

// Predict evaluates the model on in. The record must already be aligned with
// ExpectedColumns.
func (a *Artifact) Predict(_ context.Context, in features.Record) (float64, error) {
	x := in.Values()
	if !a.acceptsWidth(len(x)) {
		return 0, fmt.Errorf("provider: got %d features, model %q wants %d: %w", len(x), a.Name, a.width, ErrDimension)
	}

	switch a.Kind {
	case KindLinear:
		return a.Intercept + floats.Dot(a.Coefficients, x), nil
	case KindTree:
		return a.Trees[0].predict(x), nil
	default:
		preds := make([]float64, len(a.Trees))
		for i, tree := range a.Trees {
			preds[i] = tree.predict(x)
		}
		return stat.Mean(preds, nil), nil
	}
}

// Without feature names a tree model only needs every index it splits on.
func (a *Artifact) acceptsWidth(n int) bool {
	if a.Kind != KindLinear && a.FeatureNames == nil {
		return n >= a.width
	}
	return n == a.width
}

// ExpectedColumns returns the artifact's feature names.
func (a *Artifact) ExpectedColumns() []string {
	if a.FeatureNames == nil {
		return nil
	}
	cols := make([]string, len(a.FeatureNames))
	copy(cols, a.FeatureNames)
	return cols
}

// Info describes the artifact.
func (a *Artifact) Info() ModelInfo {
	return ModelInfo{
		Name:      a.Name,
		Kind:      a.Kind,
		Source:    a.source,
		Columns:   a.width,
		Metrics:   a.Metrics,
		TrainedOn: a.TrainedOn,
		Updated:   a.Updated,
	}
}

var _ Provider = (*Artifact)(nil)
