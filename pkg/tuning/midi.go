package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDI preview defaults
const (
	DefaultReferenceHz = 440.0 // frequency of 0 cents
	ConcertA           = 440.0 // frequency of MIDI key 69
	DefaultBendRange   = 2.0   // synth pitch bend range in semitones
	DefaultNoteTicks   = 480

	bendCenter   = 8192
	bendMax      = 16383
	midiChannels = 16
	referenceKey = 69 // A4
)

// CentsToFrequency converts cents above the reference to Hz
func CentsToFrequency(cents, referenceHz float64) float64 {
	return referenceHz * math.Pow(2, cents/Octave)
}

// FrequencyToNoteBend splits a frequency into the equal-tempered MIDI key
// below it (A4 = 440 Hz) and the 14-bit pitch bend (8192 = centre) that
// raises the key to the frequency. Keys are clamped to 0..127 and bends to
// 0..16383.
func FrequencyToNoteBend(freq, bendRange float64) (uint8, uint16) {
	keyFloat := referenceKey + 12*math.Log2(freq/ConcertA)
	keyFloat = math.Max(0, math.Min(127, keyFloat))

	key := math.Floor(keyFloat)
	offset := keyFloat - key

	bend := int(bendCenter + (offset/bendRange)*bendCenter)
	if bend < 0 {
		bend = 0
	}
	if bend > bendMax {
		bend = bendMax
	}
	return uint8(key), uint16(bend)
}

// MIDIRenderer renders pitch lists as Standard MIDI Files for auditioning
type MIDIRenderer struct {
	ticksPerQuarter uint16
	tempo           float64
	referenceHz     float64
	bendRange       float64
	noteTicks       uint32
	velocity        uint8
}

// NewMIDIRenderer creates a renderer with the default reference and bend range
func NewMIDIRenderer() *MIDIRenderer {
	return &MIDIRenderer{
		ticksPerQuarter: 480,
		tempo:           120.0,
		referenceHz:     DefaultReferenceHz,
		bendRange:       DefaultBendRange,
		noteTicks:       DefaultNoteTicks,
		velocity:        100,
	}
}

// SetReference sets the frequency of 0 cents
func (r *MIDIRenderer) SetReference(hz float64) {
	if hz > 0 {
		r.referenceHz = hz
	}
}

// SetBendRange sets the pitch bend range of the receiving synth in semitones
func (r *MIDIRenderer) SetBendRange(semitones float64) {
	if semitones > 0 {
		r.bendRange = semitones
	}
}

// SetNoteTicks sets the length of each rendered note
func (r *MIDIRenderer) SetNoteTicks(ticks uint32) {
	if ticks > 0 {
		r.noteTicks = ticks
	}
}

// Render plays every pitch in order, one note each. Each note gets its own
// channel (rotating over all 16) so its pitch bend does not affect neighbours.
func (r *MIDIRenderer) Render(pitches []float64) ([]byte, error) {
	if len(pitches) == 0 {
		return nil, errors.New("no pitches to render")
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(r.ticksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTempo(r.tempo))
	track.Add(0, smf.MetaMeter(4, 4))

	for i, cents := range pitches {
		channel := uint8(i % midiChannels)
		key, bend := FrequencyToNoteBend(CentsToFrequency(cents, r.referenceHz), r.bendRange)

		track.Add(0, midi.Pitchbend(channel, int16(int(bend)-bendCenter)))
		track.Add(0, midi.NoteOn(channel, key, r.velocity))
		track.Add(r.noteTicks, midi.NoteOff(channel, key))
		track.Add(0, midi.Pitchbend(channel, 0))
	}

	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteMIDIFile renders pitches to a file
func (r *MIDIRenderer) WriteMIDIFile(pitches []float64, filename string) error {
	data, err := r.Render(pitches)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
