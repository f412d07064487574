// Package notes maps frequencies to equal-tempered note names referenced
// to A4 = 440 Hz.
package notes

import (
	"errors"
	"fmt"
	"math"
)

// ReferenceA4 is the tuning reference in Hz.
const ReferenceA4 = 440.0

// ErrInvalidFrequency is returned for non-positive, NaN or infinite input.
var ErrInvalidFrequency = errors.New("frequency must be a positive finite number")

// chromatic names indexed by semitone distance from A.
var chromatic = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// Note is the nearest equal-tempered pitch to a frequency.
type Note struct {
	Name   string  // pitch class, e.g. "C#"
	Octave int     // scientific octave number, C starts a new octave
	Offset int     // semitones from A4
	Cents  float64 // deviation of the input from the note, in [-50, 50]
}

func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// Frequency returns the exact frequency of the note.
func (n Note) Frequency() float64 {
	return ReferenceA4 * math.Pow(2, float64(n.Offset)/12)
}

// FromFrequency returns the nearest note to f. A frequency exactly halfway
// between two semitones resolves to the higher one.
func FromFrequency(f float64) (Note, error) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Note{}, ErrInvalidFrequency
	}

	semitones := 12 * math.Log2(f/ReferenceA4)
	// snap away float noise so exact ties land on .5
	semitones = math.Round(semitones*1e9) / 1e9
	offset := int(math.Floor(semitones + 0.5))

	return Note{
		Name:   chromatic[((offset%12)+12)%12],
		Octave: 4 + floorDiv(offset+9, 12),
		Offset: offset,
		Cents:  (semitones - float64(offset)) * 100,
	}, nil
}

// Name returns the note name with octave for f, such as "A4", or "" when
// f is not a valid frequency.
func Name(f float64) string {
	n, err := FromFrequency(f)
	if err != nil {
		return ""
	}
	return n.String()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
