package storage

import (
	"context"
	"sync"
	"time"
)

// In-memory implementations of the storage interfaces, selected with
// storage.driver "memory". They back local development without AWS and the
// handler tests. The mutex-guarded check-and-set operations give the same
// guarantees the Dynamo condition expressions do.

type MemoryVoterStorage struct {
	mu     sync.Mutex
	voters map[string]*Voter
}

func NewMemoryVoterStorage() *MemoryVoterStorage {
	return &MemoryVoterStorage{voters: make(map[string]*Voter)}
}

func (s *MemoryVoterStorage) Create(_ context.Context, voter *Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.voters[voter.ID]; ok {
		return ErrItemAlreadyExists
	}
	if voter.CreatedAt.IsZero() {
		voter.CreatedAt = time.Now().UTC()
	}
	copied := *voter
	s.voters[voter.ID] = &copied
	return nil
}

func (s *MemoryVoterStorage) GetByID(_ context.Context, id string) (*Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		return nil, ErrVoterNotFound
	}
	copied := *voter
	return &copied, nil
}

func (s *MemoryVoterStorage) GetByEmail(_ context.Context, email string) (*Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, voter := range s.voters {
		if voter.Email == email {
			copied := *voter
			return &copied, nil
		}
	}
	return nil, ErrVoterNotFound
}

func (s *MemoryVoterStorage) SetPendingOTP(_ context.Context, id, code string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		return ErrVoterNotFound
	}
	voter.OTP = code
	voter.OTPExpires = &expires
	return nil
}

func (s *MemoryVoterStorage) ClearOTP(_ context.Context, id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		return ErrVoterNotFound
	}
	if voter.OTP == "" || voter.OTP != code {
		return ErrOTPMismatch
	}
	voter.OTP = ""
	voter.OTPExpires = nil
	voter.Verified = true
	return nil
}

func (s *MemoryVoterStorage) ClaimVote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		return ErrVoterNotFound
	}
	if voter.HasVoted {
		return ErrAlreadyVoted
	}
	voter.HasVoted = true
	return nil
}

type MemoryCandidateStorage struct {
	mu         sync.Mutex
	candidates map[string]*Candidate
}

func NewMemoryCandidateStorage() *MemoryCandidateStorage {
	return &MemoryCandidateStorage{candidates: make(map[string]*Candidate)}
}

func (s *MemoryCandidateStorage) GetAll(_ context.Context) ([]*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*Candidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		copied := *candidate
		result = append(result, &copied)
	}
	return result, nil
}

func (s *MemoryCandidateStorage) Get(_ context.Context, id string) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[id]
	if !ok {
		return nil, ErrCandidateNotFound
	}
	copied := *candidate
	return &copied, nil
}

func (s *MemoryCandidateStorage) Create(_ context.Context, candidate *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[candidate.ID]; ok {
		return ErrItemAlreadyExists
	}
	candidate.Votes = 0
	copied := *candidate
	s.candidates[candidate.ID] = &copied
	return nil
}

func (s *MemoryCandidateStorage) Update(_ context.Context, candidate *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.candidates[candidate.ID]
	if !ok {
		return ErrCandidateNotFound
	}
	existing.Name = candidate.Name
	existing.Party = candidate.Party
	existing.Description = candidate.Description
	existing.PhotoURL = candidate.PhotoURL
	return nil
}

func (s *MemoryCandidateStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.candidates, id)
	return nil
}

func (s *MemoryCandidateStorage) IncrementVotes(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[id]
	if !ok {
		return ErrCandidateNotFound
	}
	candidate.Votes++
	return nil
}

type MemoryAuditLogStorage struct {
	mu      sync.Mutex
	entries []*AuditLogEntry
}

func NewMemoryAuditLogStorage() *MemoryAuditLogStorage {
	return &MemoryAuditLogStorage{}
}

func (s *MemoryAuditLogStorage) Append(_ context.Context, entry *AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

func (s *MemoryAuditLogStorage) List(_ context.Context, filter AuditLogFilter) ([]*AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*AuditLogEntry
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			copied := *entry
			result = append(result, &copied)
		}
	}
	sortEntriesNewestFirst(result)
	return result, nil
}

func (s *MemoryAuditLogStorage) ListByUser(ctx context.Context, userID string, limit int) ([]*AuditLogEntry, error) {
	entries, err := s.List(ctx, AuditLogFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
