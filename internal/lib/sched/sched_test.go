package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfter_Fires(t *testing.T) {
	s := New()
	defer s.Close()

	fired := make(chan struct{})
	s.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestCancel_PreventsFiring(t *testing.T) {
	s := New()
	defer s.Close()

	fired := make(chan struct{}, 1)
	task := s.After(30*time.Millisecond, func() { fired <- struct{}{} })

	require.True(t, task.Cancel())
	// повторная отмена сообщает, что задачи уже нет
	assert.False(t, task.Cancel())

	time.Sleep(80 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("canceled task fired")
	default:
	}
	assert.Equal(t, 0, s.Pending())
}

func TestClose_CancelsAllPending(t *testing.T) {
	s := New()

	fired := make(chan struct{}, 2)
	s.After(30*time.Millisecond, func() { fired <- struct{}{} })
	s.After(40*time.Millisecond, func() { fired <- struct{}{} })
	require.Equal(t, 2, s.Pending())

	s.Close()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("task fired after Close")
	default:
	}
	assert.Equal(t, 0, s.Pending())
}

func TestAfter_AfterCloseIsNoop(t *testing.T) {
	s := New()
	s.Close()

	fired := make(chan struct{}, 1)
	task := s.After(10*time.Millisecond, func() { fired <- struct{}{} })

	time.Sleep(50 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("task scheduled after Close fired")
	default:
	}
	assert.False(t, task.Cancel())
}
