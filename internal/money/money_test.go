package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/money"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    money.Amount
		wantErr bool
	}{
		{in: "1500", want: 150000},
		{in: "1500.5", want: 150050},
		{in: "1500.05", want: 150005},
		{in: "0.99", want: 99},
		{in: ".5", want: 50},
		{in: "-12.05", want: -1205},
		{in: " 7 ", want: 700},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "1.", wantErr: true},
		{in: "1e3", wantErr: true},
		{in: "--1", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := money.Parse(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, money.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.00", money.Amount(0).String())
	assert.Equal(t, "1234.50", money.Amount(123450).String())
	assert.Equal(t, "-0.05", money.Amount(-5).String())
	assert.Equal(t, "25.00", money.FromMajor(25).String())
}

func TestJSON(t *testing.T) {
	var body struct {
		Amount money.Amount `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 250.75}`), &body))
	assert.Equal(t, money.Amount(25075), body.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "10"}`), &body))
	assert.Equal(t, money.Amount(1000), body.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount": 1.005}`), &body))

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 10.00}`, string(out))
}
