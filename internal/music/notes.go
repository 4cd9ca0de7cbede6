// Package music maps fretboard positions to note names in standard tuning.
package music

import "fmt"

// noteNames covers one octave starting at C, sharps only.
var noteNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// openStrings holds the semitone value of each open string in standard
// tuning, string 0 being low E. Semitones count from C0.
var openStrings = [6]int{
	28, // E2
	33, // A2
	38, // D3
	43, // G3
	47, // B3
	52, // E4
}

// NumStrings is the number of strings the tuning table covers.
const NumStrings = len(openStrings)

// NoteAt returns the note sounding at a string and fret in standard tuning,
// with the octave appended ("E2", "F#3"). Fret 0 is the open string.
func NoteAt(stringIdx, fret int) (string, error) {
	if stringIdx < 0 || stringIdx >= NumStrings {
		return "", fmt.Errorf("string index %d out of range [0,%d)", stringIdx, NumStrings)
	}
	if fret < 0 {
		return "", fmt.Errorf("fret %d is negative", fret)
	}
	semitone := openStrings[stringIdx] + fret
	return fmt.Sprintf("%s%d", noteNames[semitone%12], semitone/12), nil
}

// OpenNote returns the note of an open string.
func OpenNote(stringIdx int) (string, error) {
	return NoteAt(stringIdx, 0)
}
