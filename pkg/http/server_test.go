package http

import (
	"testing"
	"time"

	applogger "signalforge/pkg/logger"
)

func TestNewServerCarriesLogger(t *testing.T) {
	l := applogger.Nop()
	s := NewServer(nil,
		WithPort(0),
		WithTimeouts(time.Second, time.Second, time.Second),
		WithLogger(l),
	)
	if s.config.Logger != l {
		t.Fatal("logger option not applied to server config")
	}
}
