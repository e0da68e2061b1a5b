package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// makeWAV собирает минимальный валидный WAV (PCM LE, моно, 16 бит).
func makeWAV(samples int) io.ReadCloser {
	var buf bytes.Buffer
	dataLen := samples * 2
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8000))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16000))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return io.NopCloser(&buf)
}

// fakeSpeaker подменяет speaker: не трогает аудио-устройство, а складывает
// очередь стримов, которые тест прокручивает вручную.
func fakeSpeaker(t *testing.T) chan beep.Streamer {
	t.Helper()
	queued := make(chan beep.Streamer, 16)
	origInit, origPlay, origLock, origUnlock := initFn, playFn, lockFn, unlockFn
	initFn = func(beep.SampleRate, int) error { return nil }
	playFn = func(ss ...beep.Streamer) {
		for _, s := range ss {
			queued <- s
		}
	}
	lockFn = func() {}
	unlockFn = func() {}
	t.Cleanup(func() {
		initFn, playFn, lockFn, unlockFn = origInit, origPlay, origLock, origUnlock
	})
	return queued
}

// drain прокручивает стрим до конца, как это сделал бы микшер.
func drain(s beep.Streamer) {
	buf := make([][2]float64, 512)
	for {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func waitStatus(t *testing.T, c *Controller, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller did not reach status %v (got %v)", want, c.Status())
}

func TestPlay_UnsupportedFormat(t *testing.T) {
	fakeSpeaker(t)
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(zap.New(core).Sugar())
	err := c.Play("ogg", makeWAV(10))
	assert.Error(t, err)
	assert.Equal(t, StatusIdle, c.Status())
	// Ошибка декодирования попадает в лог контроллера
	assert.Equal(t, 1, logs.FilterMessage("Failed to decode audio stream").Len())
}

func TestPlay_NewSessionDisplacesActive(t *testing.T) {
	queued := fakeSpeaker(t)
	c := New(nil)

	aDone := make(chan error, 1)
	go func() { aDone <- c.Play("wav", makeWAV(4000)) }()
	waitStatus(t, c, StatusPlaying)
	aStream := <-queued

	bDone := make(chan error, 1)
	go func() { bDone <- c.Play("wav", makeWAV(4000)) }()

	// Play(B) вытесняет A: блокированный Play(A) возвращается без ошибки
	select {
	case err := <-aDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("displaced session did not finish")
	}
	waitStatus(t, c, StatusPlaying)

	// Поздний колбэк вытесненной сессии — no-op: B остаётся активной
	drain(aStream)
	assert.Equal(t, StatusPlaying, c.Status())
	select {
	case <-bDone:
		t.Fatal("active session finished unexpectedly")
	default:
	}

	c.Stop()
	select {
	case err := <-bDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not release active session")
	}
	assert.Equal(t, StatusIdle, c.Status())
}

func TestPlay_NaturalCompletion(t *testing.T) {
	queued := fakeSpeaker(t)
	c := New(nil)

	done := make(chan error, 1)
	go func() { done <- c.Play("wav", makeWAV(100)) }()
	waitStatus(t, c, StatusPlaying)

	drain(<-queued)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not complete")
	}
	assert.Equal(t, StatusIdle, c.Status())
}

func TestPauseResume(t *testing.T) {
	fakeSpeaker(t)
	c := New(nil)

	done := make(chan error, 1)
	go func() { done <- c.Play("wav", makeWAV(4000)) }()
	waitStatus(t, c, StatusPlaying)
	assert.True(t, c.IsPlaying())

	c.Pause()
	assert.Equal(t, StatusPaused, c.Status())
	assert.False(t, c.IsPlaying())

	c.Resume()
	assert.Equal(t, StatusPlaying, c.Status())

	c.Stop()
	require.NoError(t, <-done)
}

func TestPauseResume_NoActiveSessionIsNoop(t *testing.T) {
	fakeSpeaker(t)
	c := New(nil)
	c.Pause()
	c.Resume()
	c.Stop()
	assert.Equal(t, StatusIdle, c.Status())
}
