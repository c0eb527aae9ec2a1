package board

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/eringen/qaboard/docstore"
)

func samplePosts(loc *time.Location) []Post {
	at := func(min int) time.Time {
		return time.Date(2026, 3, 6, 10, min, 0, 0, loc)
	}
	return []Post{
		{Date: "2026-03-06", From: "Laura", Category: "RH", Question: "어쩌고?", Answer: "이래라",
			AnsweredBy: "Zach", Resolved: Resolved, FollowUp: "그럼이거는?", CreatedAt: at(0)},
		{Date: "2026-03-06", From: "Laura", Category: "VV", Question: "저쩌고?", Answer: "저래라",
			AnsweredBy: "Ed", Resolved: Resolved, CreatedAt: at(1)},
		{Date: "2026-03-06", From: "Laura", Category: "commercial", Question: "어쩌고?",
			AnsweredBy: "US-commercial", Resolved: Pending, CreatedAt: at(2)},
		{Date: "2026-03-06", From: "Laura", Category: "user acquisition", Question: "저쩌고?",
			AnsweredBy: "Erika", Resolved: Pending, CreatedAt: at(3)},
	}
}

// SeedIfEmpty writes the sample posts in one batch when the posts
// collection is empty. It reports whether anything was written.
func (d *Data) SeedIfEmpty(ctx context.Context) (bool, error) {
	existing, err := d.client.Query(ctx, docstore.Collection(postsCollection).Limit(1))
	if err != nil {
		return false, errors.Annotate(err, "check posts")
	}
	if len(existing) > 0 {
		return false, nil
	}
	b := d.client.Batch()
	for _, p := range samplePosts(d.location) {
		b.Set(postsCollection, "", postFields(p))
	}
	if err := b.Commit(ctx); err != nil {
		return false, writeError(err, "seed posts")
	}
	d.logger.Infof("seeded %d sample posts", len(samplePosts(d.location)))
	return true, nil
}
