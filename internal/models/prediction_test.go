package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPrediction() *Prediction {
	winner := "NYY"
	margin := 0.4
	return &Prediction{
		ID:           uuid.New(),
		Home:         "NYY",
		Away:         "BOS",
		Winner:       &winner,
		Margin:       &margin,
		Status:       "BOTH_KNOWN",
		Surface:      SurfaceAPI,
		ModelVersion: "2025.1",
		Features:     json.RawMessage(`[0,1]`),
		PredictedAt:  time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestPredictionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Prediction)
		wantErr bool
	}{
		{"valid", func(p *Prediction) {}, false},
		{"degenerate status without winner", func(p *Prediction) {
			p.Status = "NEITHER_KNOWN"
			p.Winner = nil
			p.Margin = nil
		}, false},
		{"missing id", func(p *Prediction) { p.ID = uuid.Nil }, true},
		{"unknown status", func(p *Prediction) { p.Status = "TIE" }, true},
		{"unknown surface", func(p *Prediction) { p.Surface = "email" }, true},
		{"margin above one", func(p *Prediction) { m := 1.5; p.Margin = &m }, true},
		{"missing model version", func(p *Prediction) { p.ModelVersion = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPrediction()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredictionFeatureValues(t *testing.T) {
	p := validPrediction()
	values, err := p.FeatureValues()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, values)
	assert.True(t, p.HasWinner())

	p.Features = nil
	values, err = p.FeatureValues()
	require.NoError(t, err)
	assert.Nil(t, values)

	p.Features = json.RawMessage(`{`)
	_, err = p.FeatureValues()
	assert.Error(t, err)
}
