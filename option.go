package central

import "github.com/sirupsen/logrus"

// Option configures a Manager at construction time.
type Option func(*Manager) error

// WithLogger sets the logger used for scan lifecycle and untracked-event
// warnings. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) error {
		m.log = l
		return nil
	}
}

// WithNotifyBuffer sets the capacity of the subscriber notification queue.
func WithNotifyBuffer(n int) Option {
	return func(m *Manager) error {
		m.notifyc = make(chan func(), n)
		return nil
	}
}
