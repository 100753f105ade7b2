package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the access level of an account
type Role string

const (
	RoleUser  Role = "user"
	RolePro   Role = "pro"
	RoleAdmin Role = "admin"
)

// Plan is the billing tier of an account
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// DefaultProfileImage is shown until the user uploads an image or signs in with Google
const DefaultProfileImage = "https://res.cloudinary.com/fitly/image/upload/v1/defaults/avatar.png"

// Subscription holds the billing state mirrored from the payment provider
type Subscription struct {
	Plan           Plan   `bson:"plan" json:"plan"`
	Status         string `bson:"status" json:"status"`
	CustomerID     string `bson:"customer_id,omitempty" json:"customerId,omitempty"`
	SubscriptionID string `bson:"subscription_id,omitempty" json:"subscriptionId,omitempty"`
}

// Document field names, shared by the store implementations and change-sets.
const (
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldName                 = "name"
	FieldGoogleID             = "google_id"
	FieldLastLogin            = "last_login"
	FieldRole                 = "role"
	FieldSubscription         = "subscription"
	FieldResetPasswordToken   = "reset_password_token"
	FieldResetPasswordExpires = "reset_password_expires"

	FieldFullName           = "full_name"
	FieldHeight             = "height"
	FieldWeight             = "weight"
	FieldContactNumber      = "contact_number"
	FieldLocation           = "location"
	FieldTrainingExperience = "training_experience"
	FieldAllergies          = "allergies"
	FieldProteinPreference  = "protein_preference"
	FieldProfileImage       = "profile_image"

	FieldCalories          = "calories"
	FieldProtein           = "protein"
	FieldWater             = "water"
	FieldWorkoutsCompleted = "workouts_completed"
	FieldStreak            = "streak"
	FieldPoints            = "points"
	FieldRestDays          = "rest_days"
	FieldLastWorkoutTime   = "last_workout_time"
	FieldLastWorkoutDate   = "last_workout_date"
	FieldWeeklyWorkouts    = "weekly_workouts"

	FieldUpdatedAt = "updated_at"
)

// User is the single persisted account document. The password hash and the
// reset credential never leave the server in JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	Name         string             `bson:"name" json:"name"`
	GoogleID     string             `bson:"google_id,omitempty" json:"googleId,omitempty"`
	LastLogin    time.Time          `bson:"last_login" json:"lastLogin"`
	Role         Role               `bson:"role" json:"role"`
	Subscription Subscription       `bson:"subscription" json:"subscription"`

	ResetPasswordToken   string     `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`

	FullName           string   `bson:"full_name" json:"fullName"`
	Height             Measure  `bson:"height" json:"height"` // cm
	Weight             Measure  `bson:"weight" json:"weight"` // kg
	ContactNumber      string   `bson:"contact_number" json:"contactNumber"`
	Location           string   `bson:"location" json:"location"`
	TrainingExperience string   `bson:"training_experience" json:"trainingExperience"`
	Allergies          []string `bson:"allergies" json:"allergies"`
	ProteinPreference  []string `bson:"protein_preference" json:"proteinPreference"`
	ProfileImage       string   `bson:"profile_image" json:"profileImage"`

	Stats `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewUser returns a record carrying every schema default
func NewUser(email, name string, now time.Time) *User {
	return &User{
		Email:     email,
		Name:      name,
		LastLogin: now,
		Role:      RoleUser,
		Subscription: Subscription{
			Plan:   PlanFree,
			Status: SubscriptionInactive,
		},
		Allergies:         []string{},
		ProteinPreference: []string{},
		ProfileImage:      DefaultProfileImage,
		Stats: Stats{
			WeeklyWorkouts: WeeklyWorkouts{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasCustomAvatar reports whether the stored profile image must survive a
// Google sign-in. Empty, the placeholder and a raw subject id do not.
func (u *User) HasCustomAvatar() bool {
	switch u.ProfileImage {
	case "", DefaultProfileImage:
		return false
	}
	return u.ProfileImage != u.GoogleID
}
