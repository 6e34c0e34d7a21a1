// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package types

// PriorityClass is the ordered sum type queues and the scheduler key off
// of. Lower values are higher priority; the zero value is the highest
// class, never a signed "-1 means voice" magic number.
type PriorityClass int

const (
	ClassAnalogVoicePtt PriorityClass = iota
	ClassP0
	ClassP1
	ClassP2
	ClassP3
	ClassRxRelay
	numPriorityClasses
)

func (p PriorityClass) String() string {
	switch p {
	case ClassAnalogVoicePtt:
		return "AnalogVoicePtt"
	case ClassP0:
		return "P0"
	case ClassP1:
		return "P1"
	case ClassP2:
		return "P2"
	case ClassP3:
		return "P3"
	case ClassRxRelay:
		return "RxRelay"
	default:
		return "Invalid"
	}
}

// Valid reports whether p is one of the defined priority classes.
func (p PriorityClass) Valid() bool {
	return p >= ClassAnalogVoicePtt && p < numPriorityClasses
}

// Higher reports whether p is strictly higher priority than other.
func (p PriorityClass) Higher(other PriorityClass) bool {
	return p < other
}

// DataQueueIndex returns the index into the data[0..3] queue array for
// the P0..P3 classes. Only valid for ClassP0..ClassP3.
func (p PriorityClass) DataQueueIndex() int {
	return int(p) - int(ClassP0)
}
