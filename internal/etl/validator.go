package etl

import (
	"fmt"
	"time"

	"github.com/BartekS5/snapetl/pkg/models"
)

// ValidateEvent checks that a run event carries a usable run timestamp.
func ValidateEvent(event models.RunEvent) error {
	if event.LastCheckedTime == "" {
		return fmt.Errorf("run event has no LastCheckedTime: %w", models.ErrMissingConfig)
	}
	if _, err := time.Parse(models.TimestampLayout, event.LastCheckedTime); err != nil {
		return fmt.Errorf("run event LastCheckedTime %q is not a run timestamp: %w", event.LastCheckedTime, err)
	}
	return nil
}
