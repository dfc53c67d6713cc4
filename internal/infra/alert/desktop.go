package alert

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// Desktop raises a native notification with a beep.
type Desktop struct {
	appName string
	notify  func(title, message string) error
}

func NewDesktop(appName string) *Desktop {
	return &Desktop{
		appName: appName,
		notify: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

func (d *Desktop) Alert(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if d.appName != "" {
		title = d.appName + ": " + title
	}

	if err := d.notify(title, message); err != nil {
		return fmt.Errorf("sending desktop alert: %w", err)
	}
	return nil
}
