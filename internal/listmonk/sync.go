package listmonk

import (
	"context"
	"fmt"
	"strings"

	"ai-newsletter/internal/model"
)

// SyncResult reports the outcome of a subscriber sync.
type SyncResult struct {
	Success int
	Failed  int
	Errors  []string
}

// SyncSubscribers pushes local subscriptions into Listmonk, creating the
// default list if none exists. Failures are collected per subscriber rather
// than aborting the sync.
func (c *Client) SyncSubscribers(ctx context.Context, subs []model.Subscriber) SyncResult {
	lists, err := c.GetLists(ctx)
	if err != nil || len(lists) == 0 {
		created, cerr := c.CreateList(ctx, "AI Newsletter Subscribers", "Main list for AI newsletter subscribers")
		if cerr != nil {
			return SyncResult{Failed: len(subs), Errors: []string{"no lists available"}}
		}
		lists = []List{*created}
	}
	listID := lists[0].ID

	var res SyncResult
	for _, sub := range subs {
		name := syncName(sub.Topics)
		if err := c.AddSubscriber(ctx, sub.Email, name, []int{listID}); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("failed to add %s", sub.Email))
			continue
		}
		res.Success++
	}
	return res
}

// syncName builds a short display name from the first couple of topics.
func syncName(ts []string) string {
	n := min(2, len(ts))
	name := fmt.Sprintf("Topics: %s", strings.Join(ts[:n], ", "))
	if len(ts) > 2 {
		name += "..."
	}
	return name
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
