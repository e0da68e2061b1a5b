package local

import (
	"context"
	"errors"
)

// ErrUnavailable — на устройстве нет пригодного локального синтезатора.
// Единственная ошибка резервного уровня, которой позволено дойти до вызывающего:
// дальше откатываться некуда.
var ErrUnavailable = errors.New("local tts: синтезатор недоступен")

// Synthesizer — локальный (оффлайн) синтез речи, резервный уровень движка.
// Принимает чистый текст (без разметки): у локальных синтезаторов нет общего
// примитива паузы, поэтому паузы — best effort на стороне вызывающего.
// Платформенные варианты (piper, espeak-ng, say) скрыты за этим интерфейсом.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (data []byte, format string, err error)
}
