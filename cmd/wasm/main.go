//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/RiffScout/pkg/riffscout/notes"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/pitch"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorInvalidFrequency
)

var detector = pitch.NewDetector(pitch.DefaultConfig())

// detectPitch estimates one pitch per analysis window of the first channel.
// Args: samples, sampleRate, channels, [tempo], [quantization]
// Returns: {error: number, data: [{time, frequency, note}] | string}
func detectPitch(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: samples, sampleRate, channels")
	}

	samplesJS := args[0]
	if samplesJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "samples must be an Array or Float32Array")
	}
	for i, name := range []string{"sampleRate", "channels"} {
		if args[i+1].Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, name+" must be a number")
		}
	}

	sampleRate := args[1].Int()
	channels := args[2].Int()
	tempo := optionalInt(args, 3, pitch.DefaultTempo)
	quantization := optionalInt(args, 4, pitch.DefaultQuantization)

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid channel count: %d", channels))
	}

	length := samplesJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "samples is empty")
	}

	interleaved := make([]float64, length)
	for i := 0; i < length; i++ {
		val := samplesJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("samples element %d is not a number", i))
		}
		interleaved[i] = val.Float()
	}

	first, err := pitch.Channel(interleaved, channels, 0)
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	windows, err := detector.Frequencies(first, sampleRate, tempo, quantization)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Pitch detection failed: %v", err))
	}

	data := js.Global().Get("Array").New()
	for i, w := range windows {
		obj := js.Global().Get("Object").New()
		obj.Set("time", w.Time)
		obj.Set("frequency", w.Frequency)
		obj.Set("note", w.Note)
		data.SetIndex(i, obj)
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

// noteName returns the nearest note for a frequency.
// Returns: {error: number, data: string}
func noteName(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: frequency (number)")
	}
	n, err := notes.FromFrequency(args[0].Float())
	if err != nil {
		return makeErrorResponse(ErrorInvalidFrequency, err.Error())
	}

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", n.String())
	return result
}

func optionalInt(args []js.Value, i, def int) int {
	if len(args) <= i || args[i].Type() != js.TypeNumber || args[i].Int() <= 0 {
		return def
	}
	return args[i].Int()
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	logf := func(level, msg string) {
		if !console.IsUndefined() {
			console.Call(level, msg)
		}
	}
	logf("log", "RiffScout WASM module initializing...")

	done := make(chan struct{})

	js.Global().Set("detectPitch", js.FuncOf(detectPitch))
	js.Global().Set("noteName", js.FuncOf(noteName))

	window := js.Global().Get("window")
	if window.IsUndefined() {
		logf("error", "window object is undefined")
	} else {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	}

	logf("log", "RiffScout WASM module loaded: detectPitch, noteName")

	<-done
}
