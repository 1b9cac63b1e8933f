package stats

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Counts is one aggregated observation delivered to a watcher's channel.
type Counts struct {
	Sessions int64 `json:"sessions"`
	Skills   int64 `json:"skills"`
}

type sessionQueries interface {
	MentorQuery(mentorID string) firestore.Query
	LearnerQuery(learnerID string) firestore.Query
}

type skillQueries interface {
	SkillsQuery(uid string) firestore.Query
}

type Service struct {
	sessions   sessionQueries
	skills     skillQueries
	log        *zap.Logger
	retryDelay time.Duration
}

func NewService(sessions sessionQueries, skills skillQueries, log *zap.Logger) *Service {
	return &Service{sessions: sessions, skills: skills, log: log, retryDelay: 5 * time.Second}
}

// Watcher owns the snapshot listeners behind one Watch call. Stop releases
// them; after Stop returns the Counts channel is closed.
type Watcher struct {
	counts chan Counts
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (w *Watcher) Counts() <-chan Counts { return w.counts }

func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
	close(w.counts)
}

type sizeUpdate struct {
	idx  int
	size int64
}

// Watch opens one snapshot listener per session query the role maps to, plus
// one for the user's skills, and emits the result set sizes. The channel
// conflates: a slow reader always sees the latest counts, never a backlog.
func (s *Service) Watch(ctx context.Context, uid string, role Role) (*Watcher, error) {
	kinds := role.queryKinds()
	if len(kinds) == 0 {
		return nil, ErrBadRequest
	}

	// Session queries occupy the leading indexes; the skills query is last.
	queries := make([]firestore.Query, 0, len(kinds)+1)
	for _, k := range kinds {
		switch k {
		case queryAsMentor:
			queries = append(queries, s.sessions.MentorQuery(uid))
		case queryAsLearner:
			queries = append(queries, s.sessions.LearnerQuery(uid))
		}
	}
	sessionCount := len(queries)
	queries = append(queries, s.skills.SkillsQuery(uid))

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{counts: make(chan Counts, 1), cancel: cancel}
	updates := make(chan sizeUpdate, len(queries))

	for i, q := range queries {
		w.wg.Add(1)
		go func(idx int, q firestore.Query) {
			defer w.wg.Done()
			s.listen(ctx, q, idx, updates)
		}(i, q)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		aggregate(ctx, sessionCount, len(queries), updates, w.counts)
	}()

	return w, nil
}

func (s *Service) listen(ctx context.Context, q firestore.Query, idx int, updates chan<- sizeUpdate) {
	for {
		it := q.Snapshots(ctx)
		for {
			snap, err := it.Next()
			if err != nil {
				it.Stop()
				if status.Code(err) == codes.Canceled {
					return
				}
				s.log.Warn("count listener failed, resubscribing",
					zap.Int("query", idx), zap.Error(err))
				break
			}
			select {
			case updates <- sizeUpdate{idx: idx, size: int64(snap.Size)}:
			case <-ctx.Done():
				it.Stop()
				return
			}
		}
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

// aggregate folds per-query sizes into a running total: indexes below
// sessionCount sum into Sessions, the rest into Skills. Queries that have not
// reported yet count as zero.
func aggregate(ctx context.Context, sessionCount, n int, updates <-chan sizeUpdate, out chan Counts) {
	sizes := make([]int64, n)
	for {
		select {
		case u := <-updates:
			sizes[u.idx] = u.size
			var c Counts
			for i, sz := range sizes {
				if i < sessionCount {
					c.Sessions += sz
				} else {
					c.Skills += sz
				}
			}
			select {
			case <-out:
			default:
			}
			out <- c
		case <-ctx.Done():
			return
		}
	}
}
