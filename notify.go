package sigplace

import "log"

// Notifier shows short messages to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// LogNotifier writes alerts to a logger.
type LogNotifier struct {
	// Logger defaults to the standard logger.
	Logger *log.Logger
}

func (n LogNotifier) Alert(message string) {
	if n.Logger == nil {
		log.Println(message)
		return
	}
	n.Logger.Println(message)
}
