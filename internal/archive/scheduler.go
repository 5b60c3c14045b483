package archive

import (
	"os"
	"sync"

	"fitsink/internal/archive/interfaces"
	"fitsink/internal/providers"
	"fitsink/internal/structures"

	"github.com/roylee0704/gron"
)

// Scheduler drives the periodic archive flush. Restore prepares the
// archive directory at boot; Persist performs the final flush during
// shutdown.
type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	archiver *Archiver
	cron     *gron.Cron
	opsMu    sync.Mutex
}

func (s *Scheduler) Init() {
	if !s.config.Archive.Enabled {
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(s.config.Archive.FlushInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if err := s.archiver.Flush(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while flushing archive: %s", err)
		}
	})
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	if !s.config.Archive.Enabled {
		return nil
	}
	return os.MkdirAll(s.config.Archive.Dir, 0o755)
}

func (s *Scheduler) Persist() error {
	if !s.config.Archive.Enabled {
		return nil
	}

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Flushing archive buffer...")
	if err := s.archiver.Flush(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while flushing archive: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, archiver *Archiver) interfaces.SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		archiver: archiver,
	}
}
