package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryVoterClaimVote(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - first claim wins, second fails", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))

		assert.NoError(t, s.ClaimVote(ctx, "v1"))
		assert.ErrorIs(t, s.ClaimVote(ctx, "v1"), ErrAlreadyVoted)
	})

	t.Run("Unhappy path - unknown voter", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		assert.ErrorIs(t, s.ClaimVote(ctx, "ghost"), ErrVoterNotFound)
	})

	t.Run("Concurrent claims - exactly one succeeds", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))

		const attempts = 50
		results := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- s.ClaimVote(ctx, "v1")
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrAlreadyVoted)
			}
		}
		assert.Equal(t, 1, succeeded, "The claim must be won exactly once")
	})
}

func TestMemoryVoterOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - set then clear marks the voter verified", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))

		expires := time.Now().UTC().Add(5 * time.Minute)
		require.NoError(t, s.SetPendingOTP(ctx, "v1", "123456", expires))

		voter, err := s.GetByID(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, "123456", voter.OTP)
		require.NotNil(t, voter.OTPExpires)

		require.NoError(t, s.ClearOTP(ctx, "v1", "123456"))

		voter, err = s.GetByID(ctx, "v1")
		require.NoError(t, err)
		assert.Empty(t, voter.OTP)
		assert.Nil(t, voter.OTPExpires)
		assert.True(t, voter.Verified)
	})

	t.Run("Unhappy path - clearing with the wrong code", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))
		require.NoError(t, s.SetPendingOTP(ctx, "v1", "123456", time.Now().UTC().Add(5*time.Minute)))

		assert.ErrorIs(t, s.ClearOTP(ctx, "v1", "654321"), ErrOTPMismatch)

		voter, err := s.GetByID(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, "123456", voter.OTP, "A failed clear leaves the code in place")
	})

	t.Run("Unhappy path - a code can only be cleared once", func(t *testing.T) {
		s := NewMemoryVoterStorage()
		require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))
		require.NoError(t, s.SetPendingOTP(ctx, "v1", "123456", time.Now().UTC().Add(5*time.Minute)))

		require.NoError(t, s.ClearOTP(ctx, "v1", "123456"))
		assert.ErrorIs(t, s.ClearOTP(ctx, "v1", "123456"), ErrOTPMismatch)
	})
}

func TestMemoryVoterCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVoterStorage()

	require.NoError(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}))
	assert.ErrorIs(t, s.Create(ctx, &Voter{ID: "v1", Email: "v1@nmamit.in"}), ErrItemAlreadyExists)

	byEmail, err := s.GetByEmail(ctx, "v1@nmamit.in")
	require.NoError(t, err)
	assert.Equal(t, "v1", byEmail.ID)

	_, err = s.GetByEmail(ctx, "nobody@nmamit.in")
	assert.ErrorIs(t, err, ErrVoterNotFound)

	// Returned records are copies, not aliases into the store.
	byEmail.Name = "mutated"
	again, err := s.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestMemoryCandidateTally(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent increments all land", func(t *testing.T) {
		s := NewMemoryCandidateStorage()
		require.NoError(t, s.Create(ctx, &Candidate{ID: "c1", Name: "Team Alpha"}))

		const increments = 50
		var wg sync.WaitGroup
		for i := 0; i < increments; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.IncrementVotes(ctx, "c1"))
			}()
		}
		wg.Wait()

		candidate, err := s.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, increments, candidate.Votes)
	})

	t.Run("Update keeps the tally", func(t *testing.T) {
		s := NewMemoryCandidateStorage()
		require.NoError(t, s.Create(ctx, &Candidate{ID: "c1", Name: "Team Alpha"}))
		require.NoError(t, s.IncrementVotes(ctx, "c1"))

		require.NoError(t, s.Update(ctx, &Candidate{ID: "c1", Name: "Team Alpha Prime", Party: "Independent"}))

		candidate, err := s.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Team Alpha Prime", candidate.Name)
		assert.Equal(t, 1, candidate.Votes)
	})

	t.Run("Unhappy path - unknown candidate", func(t *testing.T) {
		s := NewMemoryCandidateStorage()
		assert.ErrorIs(t, s.IncrementVotes(ctx, "ghost"), ErrCandidateNotFound)
		_, err := s.Get(ctx, "ghost")
		assert.ErrorIs(t, err, ErrCandidateNotFound)
	})
}

func TestMemoryAuditLogList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAuditLogStorage()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Append(ctx, &AuditLogEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			UserID:    "v1",
			Action:    "LOGIN",
			IPAddress: "10.0.0.1",
			Success:   i%2 == 0,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("Newest first ordering", func(t *testing.T) {
		entries, err := s.List(ctx, AuditLogFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 6)
		assert.Equal(t, "entry-5", entries[0].ID)
		assert.Equal(t, "entry-0", entries[5].ID)
	})

	t.Run("Outcome filter", func(t *testing.T) {
		failed := false
		entries, err := s.List(ctx, AuditLogFilter{Success: &failed})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("Date window filter", func(t *testing.T) {
		start := base.Add(2 * time.Minute)
		end := base.Add(4 * time.Minute)
		entries, err := s.List(ctx, AuditLogFilter{Start: &start, End: &end})
		require.NoError(t, err)
		assert.Len(t, entries, 3, "Bounds are inclusive")
	})

	t.Run("Address substring filter is case insensitive", func(t *testing.T) {
		entries, err := s.List(ctx, AuditLogFilter{IPAddress: "10.0.0"})
		require.NoError(t, err)
		assert.Len(t, entries, 6)

		entries, err = s.List(ctx, AuditLogFilter{IPAddress: "192.168"})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("ListByUser caps the result", func(t *testing.T) {
		entries, err := s.ListByUser(ctx, "v1", 4)
		require.NoError(t, err)
		assert.Len(t, entries, 4)
		assert.Equal(t, "entry-5", entries[0].ID)

		entries, err = s.ListByUser(ctx, "nobody", 4)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
