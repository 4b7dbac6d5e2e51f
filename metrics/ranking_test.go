package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect ranking",
			yTrue: []float64{1, 1, 1, 0, 0},
			yPred: []float64{5, 4, 3, 2, 1},
			want:  1.0,
		},
		{
			name:  "Worst ranking",
			yTrue: []float64{1, 1, 1, 0, 0},
			yPred: []float64{1, 2, 3, 4, 5},
			want:  0.478, // (1/3 + 2/4 + 3/5) / 3
		},
		{
			name:  "Mixed ranking",
			yTrue: []float64{1, 0, 1, 0, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.6, 0.5},
			want:  0.756, // (1/1 + 2/3 + 3/5) / 3
		},
		{
			name:  "Single relevant",
			yTrue: []float64{0, 0, 1, 0, 0},
			yPred: []float64{0.1, 0.2, 0.3, 0.4, 0.5},
			want:  0.333, // 1/3
		},
		{
			name:  "No relevant items",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{1, 2, 3, 4},
			want:  0.0,
		},
		{
			name:  "All relevant",
			yTrue: []float64{1, 1, 1},
			yPred: []float64{3, 2, 1},
			want:  1.0,
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{1, 2, 3},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var yTrue, yPred *mat.VecDense
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := AveragePrecision(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AveragePrecision() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 0.01 {
				t.Errorf("AveragePrecision() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCCurve(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	yScore := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})

	curve, err := ROCCurve(yTrue, yScore)
	if err != nil {
		t.Fatalf("ROCCurve() error = %v", err)
	}

	// 始点は(0,0)、終点は(1,1)
	if curve.X[0] != 0 || curve.Y[0] != 0 {
		t.Errorf("curve start = (%v,%v), want (0,0)", curve.X[0], curve.Y[0])
	}
	last := len(curve.X) - 1
	if curve.X[last] != 1 || curve.Y[last] != 1 {
		t.Errorf("curve end = (%v,%v), want (1,1)", curve.X[last], curve.Y[last])
	}

	// 台形則で積分するとAUCと一致する
	var area float64
	for i := 1; i < len(curve.X); i++ {
		area += (curve.X[i] - curve.X[i-1]) * (curve.Y[i] + curve.Y[i-1]) / 2
	}
	auc, err := AUC(yTrue, yScore)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(area-auc) > 1e-9 {
		t.Errorf("trapezoid area = %v, AUC = %v; should match", area, auc)
	}
}

func TestROCCurveSingleClassFails(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 1, 1})
	yScore := mat.NewVecDense(3, []float64{0.1, 0.5, 0.9})

	if _, err := ROCCurve(yTrue, yScore); err == nil {
		t.Error("expected error for single-class input")
	}
}

func TestPrecisionRecallCurve(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	yScore := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})

	curve, err := PrecisionRecallCurve(yTrue, yScore)
	if err != nil {
		t.Fatalf("PrecisionRecallCurve() error = %v", err)
	}

	// 最初の点は最も高いしきい値での適合率1（正解が先頭の場合）
	if curve.Y[0] != 1 {
		t.Errorf("precision at highest threshold = %v, want 1", curve.Y[0])
	}
	// 最後の点では全件が陽性と予測され、再現率は1になる
	last := len(curve.X) - 1
	if curve.X[last] != 1 {
		t.Errorf("final recall = %v, want 1", curve.X[last])
	}
	if math.Abs(curve.Y[last]-0.5) > 1e-12 {
		t.Errorf("final precision = %v, want 0.5", curve.Y[last])
	}
}
