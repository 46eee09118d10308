package domain

import "time"

type Role string

const (
	VolunteerRole Role = "volunteer"
	NGORole       Role = "ngo"
)

type Volunteer struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	Location   string    `json:"location"`
	City       string    `json:"city"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

type NGO struct {
	UID         string    `json:"uid"`
	OrgName     string    `json:"orgName"`
	FounderName string    `json:"founderName"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	IsVerified  bool      `json:"isVerified"`
	IsApproved  bool      `json:"isApproved"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type HelpRequest struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Location  string    `json:"location"`
	Landmark  string    `json:"landmark"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}
