package models

import (
	"testing"

	"github.com/guregu/null/v6"
)

func TestPredictionSignal(t *testing.T) {
	cases := []struct {
		p    Prediction
		want string
	}{
		{Prediction{CurrentPrice: null.FloatFrom(10), PredictedPrice: null.FloatFrom(11)}, SignalBuy},
		{Prediction{CurrentPrice: null.FloatFrom(10), PredictedPrice: null.FloatFrom(9)}, SignalSell},
		{Prediction{CurrentPrice: null.FloatFrom(10), PredictedPrice: null.FloatFrom(10)}, SignalHold},
		{Prediction{CurrentPrice: null.FloatFrom(10)}, ""},
		{Prediction{}, ""},
	}
	for i, c := range cases {
		if got := c.p.Signal(); got != c.want {
			t.Fatalf("case %d: Signal() = %q, want %q", i, got, c.want)
		}
	}
}

func TestSnapshotFind(t *testing.T) {
	var nilSnap *Snapshot
	if _, ok := nilSnap.Find(1); ok {
		t.Fatalf("nil snapshot should miss")
	}
	s := &Snapshot{Records: []PredictionRecord{{ID: 1, Symbol: "2222"}, {ID: 2, Symbol: "1120"}}}
	if r, ok := s.Find(2); !ok || r.Symbol != "1120" {
		t.Fatalf("Find(2) = %+v %v", r, ok)
	}
	if _, ok := s.Find(3); ok {
		t.Fatalf("Find(3) should miss")
	}
}

func TestFeatureRowVectorOrder(t *testing.T) {
	r := FeatureRow{Close: 1, High: 2, Low: 3, Change: 4, PctChange: 5, VolumeTraded: 6, ValueTraded: 7}
	v := r.Vector()
	for i := range v {
		if v[i] != float64(i+1) {
			t.Fatalf("column %s at %d = %v", FeatureColumns[i], i, v[i])
		}
	}
}
