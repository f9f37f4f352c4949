// Package setup implements the bot token form: its view state, the token
// submission flow and the selection of what the page displays.
package setup

import "context"

// BotIdentity is the bot account reported by the verification endpoint.
type BotIdentity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Registrar verifies a bot token and registers webhookURL for it.
type Registrar interface {
	Register(ctx context.Context, token, webhookURL string) (*BotIdentity, error)
}

// Status is the submission state derived from the form fields.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Display selects which panels the page renders.
type Display int

const (
	// DisplayEmpty shows the placeholder card next to the token form.
	DisplayEmpty Display = iota
	// DisplayConnected has a bot but no configured webhook. Submit never
	// produces it since both are set together.
	DisplayConnected
	// DisplayActivated shows the activated-bot summary.
	DisplayActivated
)

// Variant is the visual style of a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a transient message shown once by the next render.
type Notification struct {
	Variant     Variant
	Title       string
	Description string
}

// Messages holds the user-visible texts the form produces.
type Messages struct {
	TokenRequired string
	VerifyFailed  string
	UnknownError  string
	SuccessTitle  string
	// SuccessDescription is a format string receiving the bot's first name.
	SuccessDescription string
	ErrorTitle         string
}

// Snapshot is a copy of the form state taken under lock.
type Snapshot struct {
	Token            string
	WebhookURL       string
	Loading          bool
	Bot              *BotIdentity
	Error            string
	WebhookSetupDone bool
}

// Status derives the submission state.
func (s Snapshot) Status() Status {
	switch {
	case s.Loading:
		return StatusInFlight
	case s.Error != "":
		return StatusFailed
	case s.Bot != nil:
		return StatusSucceeded
	default:
		return StatusIdle
	}
}

// Display selects the panels to render from the current data.
func (s Snapshot) Display() Display {
	switch {
	case s.Bot == nil:
		return DisplayEmpty
	case s.WebhookSetupDone:
		return DisplayActivated
	default:
		return DisplayConnected
	}
}
