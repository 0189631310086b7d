package database

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.db.WithContext(gctx).Model(&User{}).Count(&stats.TotalUsers).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).Model(&Content{}).Count(&stats.TotalContents).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).Model(&Vote{}).Count(&stats.TotalVotes).Error
	})
	g.Go(func() error {
		return c.db.WithContext(gctx).Model(&Vote{}).Where("user_id IS NULL").Count(&stats.AnonymousVotes).Error
	})
	g.Go(func() error {
		var last Vote
		err := c.db.WithContext(gctx).Order("created_at DESC").Limit(1).Find(&last).Error
		if err != nil {
			return err
		}
		if last.ID != "" {
			stats.LastVoteAt = &last.CreatedAt
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to get stats", "error", err)
		return nil, err
	}
	return &stats, nil
}
