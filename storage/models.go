package storage

import "time"

type Voter struct {
	ID         string     `dynamodbav:"PK" json:"id"`
	Name       string     `dynamodbav:"Name" json:"name"`
	RollNumber string     `dynamodbav:"RollNumber" json:"rollNumber"`
	Email      string     `dynamodbav:"Email" json:"email"`
	Password   string     `dynamodbav:"Password" json:"-"`
	Verified   bool       `dynamodbav:"Verified" json:"verified"`
	Admin      bool       `dynamodbav:"Admin" json:"admin"`
	HasVoted   bool       `dynamodbav:"HasVoted" json:"hasVoted"`
	OTP        string     `dynamodbav:"OTP,omitempty" json:"-"`
	OTPExpires *time.Time `dynamodbav:"OTPExpires,omitempty" json:"-"`
	CreatedAt  time.Time  `dynamodbav:"CreatedAt" json:"createdAt"`
}

type Candidate struct {
	ID          string `dynamodbav:"PK" json:"id"`
	Name        string `dynamodbav:"Name" json:"name"`
	Party       string `dynamodbav:"Party" json:"party"`
	Description string `dynamodbav:"Description" json:"description"`
	PhotoURL    string `dynamodbav:"PhotoURL" json:"photoUrl"`
	Votes       int    `dynamodbav:"Votes" json:"votes"`
}

// AuditLogEntry is append-only: written once by the recorder, never updated.
type AuditLogEntry struct {
	ID           string        `dynamodbav:"PK" json:"id"`
	UserID       string        `dynamodbav:"UserID,omitempty" json:"userId,omitempty"`
	Action       string        `dynamodbav:"Action" json:"action"`
	Resource     string        `dynamodbav:"Resource" json:"resource"`
	ResourceID   string        `dynamodbav:"ResourceID,omitempty" json:"resourceId,omitempty"`
	IPAddress    string        `dynamodbav:"IPAddress" json:"ipAddress"`
	UserAgent    string        `dynamodbav:"UserAgent" json:"userAgent"`
	Details      *AuditDetails `dynamodbav:"Details,omitempty" json:"details,omitempty"`
	Success      bool          `dynamodbav:"Success" json:"success"`
	ErrorMessage string        `dynamodbav:"ErrorMessage,omitempty" json:"errorMessage,omitempty"`
	Timestamp    time.Time     `dynamodbav:"Timestamp" json:"timestamp"`
}

type AuditDetails struct {
	Method     string `dynamodbav:"Method" json:"method"`
	Path       string `dynamodbav:"Path" json:"path"`
	Query      string `dynamodbav:"Query,omitempty" json:"query,omitempty"`
	Body       string `dynamodbav:"Body,omitempty" json:"body,omitempty"`
	DurationMS int64  `dynamodbav:"DurationMS" json:"durationMs"`
	StatusCode int    `dynamodbav:"StatusCode" json:"statusCode"`
}

// AuditLogFilter narrows List results. Zero values mean no constraint.
type AuditLogFilter struct {
	Action    string
	UserID    string
	IPAddress string
	Success   *bool
	Start     *time.Time
	End       *time.Time
}

func (f AuditLogFilter) Matches(e *AuditLogEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.IPAddress != "" && !containsFold(e.IPAddress, f.IPAddress) {
		return false
	}
	if f.Success != nil && e.Success != *f.Success {
		return false
	}
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	return true
}
