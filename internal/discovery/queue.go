package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	"github.com/ndmlinh/campusmeet-gateway/internal/service"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// ProfileLookup is the external user-profile collaborator.
type ProfileLookup interface {
	GetMatchingProfile(ctx context.Context, userID string) (*models.MatchingProfile, error)
	GetExistingChannelPartners(ctx context.Context, userID string) (map[string]struct{}, error)
}

// ChannelCreator is the external channel-creation collaborator. Creation is
// idempotent per user pair.
type ChannelCreator interface {
	CreatePairChannel(ctx context.Context, userA, userB string, opts service.ChannelOptions) (*models.Channel, error)
}

type entry struct {
	userID   string
	profile  models.MatchingProfile
	options  models.MatchOptions
	queuedAt time.Time
}

// Queue is the in-memory matchmaking waiting room. Entries keep insertion
// order and matching is first-fit over that order, so the earliest-queued
// compatible candidate wins. The queue lock is held for the whole of each
// Join and Leave, channel creation included: a join either completes its
// scan-match-create sequence or leaves the queue untouched, and no two
// joins can claim the same candidate.
type Queue struct {
	mu         sync.Mutex
	entries    []entry
	profiles   ProfileLookup
	channels   ChannelCreator
	eventUsers map[string]struct{}
	l          logger.Logger
}

func NewQueue(
	profiles ProfileLookup,
	channels ChannelCreator,
	eventUserIDs []string,
	l logger.Logger,
) *Queue {
	eventUsers := make(map[string]struct{}, len(eventUserIDs))
	for _, id := range eventUserIDs {
		eventUsers[id] = struct{}{}
	}

	return &Queue{
		profiles:   profiles,
		channels:   channels,
		eventUsers: eventUsers,
		l:          l,
	}
}

// Join attempts to pair userID with a waiting user. Returns the match
// result when a compatible candidate is found, nil when the user was
// queued instead. A second join while already queued is a silent no-op and
// does not touch the stored preferences.
func (q *Queue) Join(ctx context.Context, userID string, opts models.MatchOptions) (*models.MatchResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queuedLocked(userID) {
		q.l.Debugf(ctx, "discovery: %s already queued, ignoring join", userID)
		return nil, nil
	}

	profile, err := q.profiles.GetMatchingProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	partners, err := q.profiles.GetExistingChannelPartners(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i, cand := range q.entries {
		if _, shared := partners[cand.userID]; shared {
			continue
		}

		if !q.eligible(userID, *profile, opts, cand) {
			continue
		}

		ch, err := q.channels.CreatePairChannel(ctx, cand.userID, userID, service.ChannelOptions{
			Video:           true,
			WantAccessToken: true,
		})
		if err != nil {
			// The candidate stays queued; the joining user is not added.
			return nil, err
		}

		q.entries = append(q.entries[:i], q.entries[i+1:]...)

		q.l.Infof(ctx, "discovery: matched %s with %s on channel %s", cand.userID, userID, ch.ID)

		return &models.MatchResult{
			UserIDs: [2]string{cand.userID, userID},
			Channel: ch,
		}, nil
	}

	q.entries = append(q.entries, entry{
		userID:   userID,
		profile:  *profile,
		options:  opts,
		queuedAt: time.Now(),
	})

	q.l.Infof(ctx, "discovery: %s queued (length %d)", userID, len(q.entries))

	return nil, nil
}

// eligible applies the OR-combined constraints of both sides. Event users
// bypass all constraints.
func (q *Queue) eligible(userID string, profile models.MatchingProfile, opts models.MatchOptions, cand entry) bool {
	if _, ok := q.eventUsers[userID]; ok {
		return true
	}
	if _, ok := q.eventUsers[cand.userID]; ok {
		return true
	}

	if (opts.SameYear || cand.options.SameYear) && profile.YearOfStudy != cand.profile.YearOfStudy {
		return false
	}

	if (opts.SameDepartment || cand.options.SameDepartment) && profile.Department != cand.profile.Department {
		return false
	}

	return true
}

// Leave removes userID from the queue. Idempotent.
func (q *Queue) Leave(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.userID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// Queued reports whether userID currently waits in the queue.
func (q *Queue) Queued(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.queuedLocked(userID)
}

func (q *Queue) queuedLocked(userID string) bool {
	for _, e := range q.entries {
		if e.userID == userID {
			return true
		}
	}
	return false
}

// Len reports the number of waiting users.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// IsEventUser reports whether userID is exempt from matching constraints.
func (q *Queue) IsEventUser(userID string) bool {
	_, ok := q.eventUsers[userID]
	return ok
}
