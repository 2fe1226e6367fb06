package indicator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_SomeNone(t *testing.T) {
	v, ok := Some(42.5).Get()
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)

	_, ok = None[float64]().Get()
	assert.False(t, ok)
	assert.False(t, None[ATRResult]().Present())
}

func TestOptional_JSON(t *testing.T) {
	type wrapper struct {
		A Optional[float64]   `json:"a"`
		B Optional[ATRResult] `json:"b"`
	}

	out, err := json.Marshal(wrapper{A: Some(1.5), B: None[ATRResult]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(out))

	var back wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":{"atr":2,"atr_pct":1.5}}`), &back))
	assert.False(t, back.A.Present())
	atr, ok := back.B.Get()
	require.True(t, ok)
	assert.Equal(t, ATRResult{ATR: 2, ATRPct: 1.5}, atr)
}
