package volumeio

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"edgedog/internal/models"
)

// Sink persists computed volumes as datasets
type Sink struct {
	// Overwrite allows replacing datasets that already exist
	Overwrite bool

	logger logrus.FieldLogger
}

// NewSink creates a sink. A nil logger selects the standard logrus logger.
func NewSink(overwrite bool, logger logrus.FieldLogger) *Sink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sink{Overwrite: overwrite, logger: logger}
}

// CheckOverwrite fails with ErrExists when prefix names an existing
// dataset and overwriting is not allowed
func (s *Sink) CheckOverwrite(prefix string) error {
	if !s.Overwrite && Exists(prefix) {
		return fmt.Errorf("can't overwrite existing dataset '%s': %w", HeaderPath(prefix), ErrExists)
	}
	return nil
}

// Write stores vol under prefix with the given history lines
func (s *Sink) Write(prefix string, vol *models.Volume, history []string) error {
	if err := s.CheckOverwrite(prefix); err != nil {
		return err
	}

	if err := writeDataset(prefix, vol, history); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"dataset": HeaderPath(prefix),
		"nvals":   vol.NVals(),
		"datum":   vol.Bricks[0].Datum(),
	}).Info("Dataset written")

	return nil
}
