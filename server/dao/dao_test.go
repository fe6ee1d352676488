package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SessionState_BinaryRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		state SessionState
	}{
		{name: "zero value", state: SessionState{}},
		{name: "flags only", state: SessionState{Strict: true, Hardened: true}},
		{name: "with history", state: SessionState{
			History: []string{"(def x 5)", "(x + 1)", `(print "glub")`},
		}},
		{name: "history with empty entry", state: SessionState{
			History: []string{""},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			data, err := tc.state.MarshalBinary()
			assert.NoError(err)

			var decoded SessionState
			err = decoded.UnmarshalBinary(data)
			assert.NoError(err)

			assert.Equal(tc.state.Strict, decoded.Strict)
			assert.Equal(tc.state.Hardened, decoded.Hardened)
			assert.Equal(len(tc.state.History), len(decoded.History))
			for i := range tc.state.History {
				assert.Equal(tc.state.History[i], decoded.History[i])
			}
		})
	}
}

func Test_SessionState_UnmarshalTruncated(t *testing.T) {
	assert := assert.New(t)

	full := SessionState{History: []string{"(+ 1 2)"}}
	data, err := full.MarshalBinary()
	assert.NoError(err)

	var decoded SessionState
	err = decoded.UnmarshalBinary(data[:len(data)-2])
	assert.Error(err)
}
