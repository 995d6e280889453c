package servicemanager

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.events...)
}

type testService struct {
	name     string
	startErr error
	healthy  bool
	log      *eventLog
}

func (s *testService) record(event string) {
	s.log.add(event + ":" + s.name)
}

func (s *testService) Health(context.Context, bool) (int, string, error) {
	if !s.healthy {
		return http.StatusServiceUnavailable, "down", errors.NewServiceError("%s is down", s.name)
	}

	return http.StatusOK, `{"ok":true}`, nil
}

func (s *testService) Init(context.Context) error {
	s.record("init")
	return nil
}

func (s *testService) Start(ctx context.Context, readyCh chan<- struct{}) error {
	s.record("start")
	close(readyCh)

	if s.startErr != nil {
		return s.startErr
	}

	<-ctx.Done()

	return nil
}

func (s *testService) Stop(context.Context) error {
	s.record("stop")
	return nil
}

func TestServiceManagerLifecycle(t *testing.T) {
	log := &eventLog{}

	sm := NewServiceManager(context.Background(), ulogger.TestLogger{})

	require.NoError(t, sm.AddService("a", &testService{name: "a", healthy: true, log: log}))
	require.NoError(t, sm.AddService("b", &testService{name: "b", healthy: true, log: log}))

	time.AfterFunc(10*time.Millisecond, sm.Shutdown)

	require.NoError(t, sm.Wait())
	assert.Equal(t, []string{"init:a", "start:a", "init:b", "start:b", "stop:b", "stop:a"}, log.all())
}

func TestServiceManagerFailingService(t *testing.T) {
	log := &eventLog{}

	sm := NewServiceManager(context.Background(), ulogger.TestLogger{})

	require.NoError(t, sm.AddService("ok", &testService{name: "ok", healthy: true, log: log}))
	require.NoError(t, sm.AddService("bad", &testService{name: "bad", startErr: errors.ErrProcessing, log: log}))

	err := sm.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServiceError))
	assert.Contains(t, log.all(), "stop:ok")
}

func TestHealthHandler(t *testing.T) {
	log := &eventLog{}

	sm := NewServiceManager(context.Background(), ulogger.TestLogger{})
	defer sm.Shutdown()

	require.NoError(t, sm.AddService("sequencer", &testService{name: "sequencer", healthy: true, log: log}))

	status, body, err := sm.HealthHandler(true)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"sequencer":{"ok":true}}`, body)

	require.NoError(t, sm.AddService("bridge", &testService{name: "bridge", log: log}))

	status, body, err = sm.HealthHandler(false)(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"bridge":"down","sequencer":{"ok":true}}`, body)
}
