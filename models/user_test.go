package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeUser() *User {
	u := NewUser("a@x.com", "Ann", time.Now())
	u.FullName = "Ann Lee"
	u.Height = 170
	u.Weight = 62.5
	u.ContactNumber = "+15550100"
	u.Location = "Austin"
	u.TrainingExperience = "intermediate"
	return u
}

func TestIsProfileComplete(t *testing.T) {
	assert.False(t, IsProfileComplete(nil))
	assert.False(t, IsProfileComplete(NewUser("a@x.com", "Ann", time.Now())), "fresh account")
	assert.True(t, IsProfileComplete(completeUser()))

	clears := map[string]func(*User){
		"full name":           func(u *User) { u.FullName = "" },
		"height":              func(u *User) { u.Height = 0 },
		"weight":              func(u *User) { u.Weight = 0 },
		"contact number":      func(u *User) { u.ContactNumber = "" },
		"location":            func(u *User) { u.Location = "" },
		"training experience": func(u *User) { u.TrainingExperience = "" },
	}
	for name, clear := range clears {
		t.Run(name, func(t *testing.T) {
			u := completeUser()
			clear(u)
			assert.False(t, IsProfileComplete(u))
		})
	}
}

func TestMeasureUnmarshal(t *testing.T) {
	var body struct {
		Height *Measure `json:"height"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"height": 180.5}`), &body))
	assert.Equal(t, Measure(180.5), *body.Height)

	require.NoError(t, json.Unmarshal([]byte(`{"height": "172"}`), &body))
	assert.Equal(t, Measure(172), *body.Height)

	require.NoError(t, json.Unmarshal([]byte(`{"height": ""}`), &body))
	assert.Equal(t, Measure(0), *body.Height)

	assert.Error(t, json.Unmarshal([]byte(`{"height": "abc"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"height": true}`), &body))
}

func TestHasCustomAvatar(t *testing.T) {
	u := NewUser("a@x.com", "Ann", time.Now())
	assert.False(t, u.HasCustomAvatar(), "placeholder")

	u.ProfileImage = ""
	assert.False(t, u.HasCustomAvatar())

	u.GoogleID = "1234567890"
	u.ProfileImage = "1234567890"
	assert.False(t, u.HasCustomAvatar(), "raw subject id")

	u.ProfileImage = "profile_images/abc/def.png"
	assert.True(t, u.HasCustomAvatar())
}

func TestParseWorkoutDate(t *testing.T) {
	d, err := ParseWorkoutDate("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, WorkoutDate("2025-03-04"), d)

	d, err = ParseWorkoutDate("2025-03-04T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, WorkoutDate("2025-03-05"), d)

	_, err = ParseWorkoutDate("yesterday")
	assert.Error(t, err)
}
