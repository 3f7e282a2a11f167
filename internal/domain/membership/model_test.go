package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership_WithState(t *testing.T) {
	m := Membership{MemberID: "m1", LeagueID: "l1", LivesRemaining: DefaultStartingLives}

	week := 5
	out := m.WithState(0, true, &week)
	require.NoError(t, out.Validate())
	require.NotNil(t, out.EliminatedWeek)
	assert.Equal(t, 5, *out.EliminatedWeek)
	assert.Equal(t, "m1", out.MemberID)

	week = 9
	assert.Equal(t, 5, *out.EliminatedWeek, "elimination week is copied")
	assert.False(t, SameState(m, out))

	revived := out.WithState(1, false, nil)
	require.NoError(t, revived.Validate())
	assert.Nil(t, revived.EliminatedWeek)
	assert.True(t, SameState(revived, Membership{LivesRemaining: 1}))
}

func TestMembership_Validate(t *testing.T) {
	week := 4
	tests := []struct {
		name    string
		m       Membership
		wantErr bool
	}{
		{name: "alive", m: Membership{LivesRemaining: 2}},
		{name: "eliminated", m: Membership{LivesRemaining: 0, Eliminated: true, EliminatedWeek: &week}},
		{name: "negative lives", m: Membership{LivesRemaining: -1}, wantErr: true},
		{name: "zero lives not eliminated", m: Membership{LivesRemaining: 0}, wantErr: true},
		{name: "eliminated without week", m: Membership{LivesRemaining: 0, Eliminated: true}, wantErr: true},
		{name: "alive with week", m: Membership{LivesRemaining: 1, EliminatedWeek: &week}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.m.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
