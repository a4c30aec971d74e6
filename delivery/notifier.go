package delivery

import (
	"github.com/gen2brain/beeep"

	"github.com/kbukum/dictate/logger"
)

// Notification texts for the recording lifecycle.
const (
	MsgRecording    = "Recording started... (Run again to stop)"
	MsgTranscribing = "Transcribing..."
	MsgNoSpeech     = "No speech detected."
	MsgDone         = "Done!"
)

const maxPreview = 100

// SendFunc delivers one notification.
type SendFunc func(title, message, icon string) error

// Notifier raises desktop notifications. The zero value is disabled.
type Notifier struct {
	enabled bool
	title   string
	icon    string
	send    SendFunc
	log     *logger.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithSender replaces the desktop backend.
func WithSender(fn SendFunc) NotifierOption {
	return func(n *Notifier) { n.send = fn }
}

// WithNotifierLogger logs notifications that could not be shown.
func WithNotifierLogger(l *logger.Logger) NotifierOption {
	return func(n *Notifier) { n.log = l }
}

// NewNotifier creates a Notifier from cfg.
func NewNotifier(cfg Config, opts ...NotifierOption) *Notifier {
	cfg.ApplyDefaults()
	n := &Notifier{
		enabled: cfg.Notifications == NotifyDesktop,
		title:   cfg.Title,
		icon:    cfg.Icon,
		send:    beeep.Notify,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Recording()    { n.notify(MsgRecording) }
func (n *Notifier) Transcribing() { n.notify(MsgTranscribing) }
func (n *Notifier) NoSpeech()     { n.notify(MsgNoSpeech) }

// Done reports a delivered transcript with a short preview of it.
func (n *Notifier) Done(text string) {
	if r := []rune(text); len(r) > maxPreview {
		text = string(r[:maxPreview]) + "..."
	}
	if text == "" {
		n.notify(MsgDone)
		return
	}
	n.notify(MsgDone + " " + text)
}

// Failed reports err under an error title.
func (n *Notifier) Failed(err error) {
	if err == nil {
		return
	}
	n.notifyAs("Error", "Failed: "+err.Error())
}

// notify is safe on a nil Notifier.
func (n *Notifier) notify(message string) {
	if n == nil {
		return
	}
	n.notifyAs(n.title, message)
}

func (n *Notifier) notifyAs(title, message string) {
	if n == nil || !n.enabled || n.send == nil {
		return
	}
	if err := n.send(title, message, n.icon); err != nil {
		n.log.Debug("notification not shown", logger.Fields(logger.FieldError, err.Error()))
	}
}
