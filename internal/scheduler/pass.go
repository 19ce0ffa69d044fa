package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-newsletter/internal/model"
	"ai-newsletter/internal/storage"
)

// runPass executes one generate-and-log cycle. Store failures abort the pass;
// provider failures degrade (fallback content, skipped dispatch) and never
// do. A panic anywhere in the pass is converted to an error so the poll loop
// survives.
func (s *Scheduler) runPass(ctx context.Context) (rep Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("newsletter generation failed: %v", r)
		}
	}()

	started := s.now()
	s.mu.Lock()
	s.lastRun = started
	s.mu.Unlock()

	subs, err := s.store.ListActiveSubscribers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list active subscribers: %w", err)
	}
	if len(subs) == 0 {
		s.log.Info("pass: no active subscribers")
		return Report{}, nil
	}

	// Group subscribers by the exact serialized topic set so the content
	// provider is called once per unique combination, not once per
	// subscriber. The key is order-sensitive as stored.
	groups := make(map[string][]model.Subscriber)
	keys := make([]string, 0, len(subs))
	for _, sub := range subs {
		key := storage.TopicsKey(sub.Topics)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], sub)
	}

	mailReady := s.mailer != nil && s.mailer.IsConfigured(ctx)
	if !mailReady {
		s.log.Info("pass: mail dispatch not configured, generating without sending")
	}

	records := make([]model.RunRecord, 0, len(subs))
	for _, key := range keys {
		members := groups[key]
		content := s.gen.GenerateNewsletter(ctx, members[0].Topics)
		if mailReady {
			html, rerr := s.render(content)
			if rerr != nil {
				s.log.Warn("pass: render failed, skipping dispatch", "err", rerr)
			} else if derr := s.mailer.Dispatch(ctx, content.Subject, html, s.listID); derr != nil {
				s.log.Warn("pass: dispatch failed", "recipients", len(members), "err", derr)
			} else {
				s.log.Info("pass: newsletter dispatched", "recipients", len(members), "topics", members[0].Topics)
			}
		}
		cb, merr := json.Marshal(content)
		if merr != nil {
			return Report{}, fmt.Errorf("serialize content: %w", merr)
		}
		for _, sub := range members {
			records = append(records, model.RunRecord{
				Email:     sub.Email,
				TopicsKey: key,
				Content:   string(cb),
				SentAt:    started,
				Success:   true,
			})
		}
	}

	// One transaction for the whole pass.
	if err := s.store.AppendRunLog(ctx, records); err != nil {
		return Report{}, fmt.Errorf("append run log: %w", err)
	}

	rep = Report{
		NewslettersGenerated:   len(records),
		UniqueContentGenerated: len(keys),
		SubscribersReached:     len(records),
	}
	if n, cerr := s.store.CountRunsForDay(ctx, started); cerr == nil {
		rep.SubscribersReached = int(n)
	}
	s.log.Info("pass: completed",
		"newsletters", rep.NewslettersGenerated,
		"unique_content", rep.UniqueContentGenerated)
	return rep, nil
}
