package events

import "log/slog"

type Option func(*Subscriber)

func WithBuffer(n int) Option {
	return func(s *Subscriber) {
		if n > 0 {
			s.buffer = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}
