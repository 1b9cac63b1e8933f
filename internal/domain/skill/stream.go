package skill

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SkillStream delivers the user's full skill set on every change. Restart by
// resubscribing.
type SkillStream struct {
	Skills <-chan []Skill
	Errs   <-chan error
	stop   context.CancelFunc
}

func (s *SkillStream) Stop() { s.stop() }

// StreamSkills subscribes to the skills owned by uid. Each snapshot yields the
// complete current set, not a delta.
func (r *Repo) StreamSkills(ctx context.Context, uid string, log *zap.Logger) *SkillStream {
	ctx, cancel := context.WithCancel(ctx)
	it := r.SkillsQuery(uid).Snapshots(ctx)

	next := func() ([]Skill, error) {
		snap, err := it.Next()
		if err != nil {
			return nil, err
		}
		out := []Skill{}
		for {
			doc, err := snap.Documents.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				break
			}
			var sk Skill
			if err := doc.DataTo(&sk); err != nil {
				continue
			}
			sk.ID = doc.Ref.ID
			sk.UserID = uid
			out = append(out, sk)
		}
		return out, nil
	}
	return runSkillStream(ctx, cancel, uid, next, it.Stop, log)
}

// runSkillStream pumps snapshot batches onto the stream until the context is
// cancelled or the listener fails. Teardown cancellations are filtered out;
// every other listener error is delivered on Errs and ends the stream.
func runSkillStream(ctx context.Context, cancel context.CancelFunc, uid string, next func() ([]Skill, error), stop func(), log *zap.Logger) *SkillStream {
	skills := make(chan []Skill, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(skills)
		defer close(errs)
		defer stop()

		for {
			batch, err := next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				log.Warn("skill listener failed", zap.String("uid", uid), zap.Error(err))
				errs <- err
				return
			}
			select {
			case skills <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &SkillStream{Skills: skills, Errs: errs, stop: cancel}
}
