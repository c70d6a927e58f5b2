// Package tray provides a system tray interface for repsense.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/repsense/internal/app"
	"github.com/ayusman/repsense/internal/store"
	"github.com/ayusman/repsense/pkg/logger"
)

// Controller is the session control the tray needs. *app.App implements it.
type Controller interface {
	Start(ctx context.Context) (*store.Session, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) (*store.Session, error)
}

// Tray represents the system tray application.
type Tray struct {
	ctrl   Controller
	log    logger.Logger
	onOpen func()
	onQuit func()

	mu       sync.RWMutex
	active   bool
	paused   bool
	count    int
	feedback string

	// Menu items stored for later updates
	menuSession  *systray.MenuItem
	menuPause    *systray.MenuItem
	menuCount    *systray.MenuItem
	menuFeedback *systray.MenuItem
}

// New creates a new Tray driving ctrl.
func New(ctrl Controller, log logger.Logger) *Tray {
	if log == nil {
		log = logger.Nop()
	}
	return &Tray{ctrl: ctrl, log: log}
}

// OnOpen sets the callback for the "Open Dashboard" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit ends Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// Watch applies session updates to the menu until updates is closed.
func (t *Tray) Watch(updates <-chan app.Update) {
	for u := range updates {
		t.apply(u)
	}
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("repsense")
	systray.SetTooltip("repsense pushup counter")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(t.active), "Start or stop a session")
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume counting")
	if !t.active {
		t.menuPause.Disable()
	}
	systray.AddSeparator()

	t.menuCount = systray.AddMenuItem(countTitle(t.count), "Reps this session")
	t.menuCount.Disable()
	t.menuFeedback = systray.AddMenuItem(feedbackTitle(t.feedback), "Latest form feedback")
	t.menuFeedback.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit repsense")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuSession.ClickedCh:
				t.handleSession()
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleSession starts a session or stops the running one.
func (t *Tray) handleSession() {
	t.mu.RLock()
	active := t.active
	t.mu.RUnlock()

	ctx := context.Background()
	var err error
	if active {
		_, err = t.ctrl.Stop(ctx)
	} else {
		_, err = t.ctrl.Start(ctx)
	}
	if err != nil {
		t.log.Warn(ctx, "tray session action failed", logger.Bool("active", active), logger.Error(err))
	}
}

// handlePause pauses or resumes the running session.
func (t *Tray) handlePause() {
	t.mu.RLock()
	paused := t.paused
	t.mu.RUnlock()

	ctx := context.Background()
	var err error
	if paused {
		err = t.ctrl.Resume(ctx)
	} else {
		err = t.ctrl.Pause(ctx)
	}
	if err != nil {
		t.log.Warn(ctx, "tray pause action failed", logger.Bool("paused", paused), logger.Error(err))
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// apply records an update and refreshes the menu if it exists.
func (t *Tray) apply(u app.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch u.Kind {
	case app.UpdateSession:
		if u.Status != nil {
			t.active = u.Status.Active
			t.paused = u.Status.Paused
			t.count = u.Status.Stats.TotalPushups
			if !t.active {
				t.feedback = ""
			}
		}
	case app.UpdateRep, app.UpdateFrame:
		t.count = u.Count
		if u.Metrics != nil && len(u.Metrics.Feedback) > 0 {
			t.feedback = u.Metrics.Feedback[0]
		}
	}

	if t.menuSession == nil {
		return
	}
	t.menuSession.SetTitle(sessionTitle(t.active))
	t.menuPause.SetTitle(pauseTitle(t.paused))
	if t.active {
		t.menuPause.Enable()
	} else {
		t.menuPause.Disable()
	}
	t.menuCount.SetTitle(countTitle(t.count))
	t.menuFeedback.SetTitle(feedbackTitle(t.feedback))
	systray.SetTitle(fmt.Sprintf("%d", t.count))
}

// Count returns the rep count shown in the menu.
func (t *Tray) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Active reports whether the tray believes a session is running.
func (t *Tray) Active() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

func sessionTitle(active bool) string {
	if active {
		return "■ Stop Session"
	}
	return "▶ Start Session"
}

func pauseTitle(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

func countTitle(count int) string {
	if count == 1 {
		return "1 rep"
	}
	return fmt.Sprintf("%d reps", count)
}

func feedbackTitle(feedback string) string {
	if feedback == "" {
		return "Form: -"
	}
	return "Form: " + feedback
}
