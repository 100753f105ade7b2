// Package assistant builds the fitness coach prompt and talks to the
// chat-completion providers.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/raushankrgupta/fitly/models"
)

const (
	MaxTokens   = 250
	Temperature = 0.7
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation as the client sends it
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Completer is a chat-completion backend
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

type Profile struct {
	FullName           string         `json:"fullName"`
	Name               string         `json:"name"`
	Height             models.Measure `json:"height"`
	Weight             models.Measure `json:"weight"`
	TrainingExperience string         `json:"trainingExperience"`
	Allergies          []string       `json:"allergies"`
	ProteinPreference  []string       `json:"proteinPreference"`
}

type LastWorkout struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type Stats struct {
	WorkoutsCompleted int                   `json:"workoutsCompleted"`
	Streak            int                   `json:"streak"`
	LastWorkout       LastWorkout           `json:"lastWorkout"`
	WeeklyWorkouts    models.WeeklyWorkouts `json:"weeklyWorkouts"`
	RestDays          int                   `json:"restDays"`
	Calories          float64               `json:"calories"`
	Protein           float64               `json:"protein"`
	Water             float64               `json:"water"`
	Points            int                   `json:"points"`
}

func ProfileFromUser(u *models.User) Profile {
	return Profile{
		FullName:           u.FullName,
		Name:               u.Name,
		Height:             u.Height,
		Weight:             u.Weight,
		TrainingExperience: u.TrainingExperience,
		Allergies:          u.Allergies,
		ProteinPreference:  u.ProteinPreference,
	}
}

func StatsFromUser(u *models.User) Stats {
	return Stats{
		WorkoutsCompleted: u.WorkoutsCompleted,
		Streak:            u.Streak,
		LastWorkout: LastWorkout{
			Date: string(u.LastWorkoutDate),
			Time: u.LastWorkoutTime,
		},
		WeeklyWorkouts: u.WeeklyWorkouts,
		RestDays:       u.RestDays,
		Calories:       u.Calories,
		Protein:        u.Protein,
		Water:          u.Water,
		Points:         u.Points,
	}
}

const coachInstructions = `You are a friendly and professional fitness coach. You have access to the user's profile and stats information and should use it to provide personalized responses.

%s
When responding:
- Use the user's name when appropriate
- Reference their specific profile information and current stats when relevant
- Provide encouragement based on their progress
- Suggest improvements based on their stats
- Keep their preferences and restrictions in mind
- Write in a conversational, encouraging tone
- Use emojis naturally
- Break up text into readable paragraphs
- Keep responses focused on fitness topics and user's information
- Never share information about other users
- If asked about profile information or stats, only share the current user's data`

// BuildSystemPrompt renders the coach instructions around the user's
// profile and stats.
func BuildSystemPrompt(p Profile, s Stats) string {
	var b strings.Builder

	b.WriteString("Current user information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", firstNonEmpty(p.FullName, p.Name, "User"))
	fmt.Fprintf(&b, "- Height: %s\n", measureOr(p.Height, "Not specified"))
	fmt.Fprintf(&b, "- Weight: %s\n", measureOr(p.Weight, "Not specified"))
	fmt.Fprintf(&b, "- Training Experience: %s\n", firstNonEmpty(p.TrainingExperience, "Not specified"))
	fmt.Fprintf(&b, "- Allergies: %s\n", firstNonEmpty(strings.Join(p.Allergies, ", "), "None specified"))
	fmt.Fprintf(&b, "- Protein Preference: %s\n", firstNonEmpty(strings.Join(p.ProteinPreference, ", "), "Not specified"))

	b.WriteString("\nUser's current stats:\n")
	fmt.Fprintf(&b, "- Workouts Completed: %d\n", s.WorkoutsCompleted)
	fmt.Fprintf(&b, "- Current Streak: %d days\n", s.Streak)
	fmt.Fprintf(&b, "- Last Workout: %s at %s\n",
		firstNonEmpty(s.LastWorkout.Date, "Not recorded"),
		firstNonEmpty(s.LastWorkout.Time, "Not recorded"))
	fmt.Fprintf(&b, "- Weekly Workouts: %d this week\n", len(s.WeeklyWorkouts))
	fmt.Fprintf(&b, "- Rest Days: %d\n", s.RestDays)
	fmt.Fprintf(&b, "- Daily Calories: %g\n", s.Calories)
	fmt.Fprintf(&b, "- Daily Protein: %gg\n", s.Protein)
	fmt.Fprintf(&b, "- Daily Water: %gml\n", s.Water)
	fmt.Fprintf(&b, "- Total Points: %d\n", s.Points)

	b.WriteString("\nWeekly Workout Schedule:\n")
	dates := make([]string, 0, len(s.WeeklyWorkouts))
	for date := range s.WeeklyWorkouts {
		dates = append(dates, string(date))
	}
	sort.Strings(dates)
	for _, date := range dates {
		w := s.WeeklyWorkouts[models.WorkoutDate(date)]
		fmt.Fprintf(&b, "- %s: %s (%g minutes)\n", date, w.WorkoutType, w.Duration)
	}

	return fmt.Sprintf(coachInstructions, b.String())
}

var (
	markdownMarks = regexp.MustCompile(`[*#\-]+`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips markdown emphasis, headings and bullets from a reply
func Sanitize(reply string) string {
	reply = markdownMarks.ReplaceAllString(reply, "")
	return blankRuns.ReplaceAllString(reply, "\n\n")
}

// Reply asks the completer for the coach's next message
func Reply(ctx context.Context, c Completer, p Profile, s Stats, messages []Message) (string, error) {
	out, err := c.Complete(ctx, BuildSystemPrompt(p, s), messages)
	if err != nil {
		return "", err
	}
	return Sanitize(out), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func measureOr(m models.Measure, fallback string) string {
	if m == 0 {
		return fallback
	}
	return fmt.Sprintf("%g", float64(m))
}
