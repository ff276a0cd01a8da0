package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/always-cache/gofetch/store"
)

// startGC schedules periodic orphan-blob collection on a disk store.
// Not needed for the in-memory store (nothing to reclaim there beyond
// process exit). Returns the cron runner so the caller can stop it.
func startGC(ds *store.DiskStore, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := ds.GCOrphanBlobs(context.Background()); err != nil {
			log.Error().Err(err).Msg("orphan blob collection failed")
			return
		}
		log.Debug().Msg("orphan blob collection complete")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
