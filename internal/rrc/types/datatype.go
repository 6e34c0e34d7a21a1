// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package types holds the concrete data model RRC routes and transmits:
// the datatype/priority taxonomy, frames, and application messages.
package types

// DataType tags the kind of traffic an ApplicationMessage carries. Every
// variant has a fixed, immutable priority-class assignment below.
type DataType int

const (
	Sms DataType = iota
	DigitalVoice
	Video
	File
	AnalogVoicePttData
	Relay
	ToL3
	Unknown
)

// String returns the datatype name, used in logs and the state dump.
func (d DataType) String() string {
	switch d {
	case Sms:
		return "Sms"
	case DigitalVoice:
		return "DigitalVoice"
	case Video:
		return "Video"
	case File:
		return "File"
	case AnalogVoicePttData:
		return "AnalogVoicePtt"
	case Relay:
		return "Relay"
	case ToL3:
		return "ToL3"
	case Unknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// PriorityClass is the fixed datatype-to-priority mapping from the
// classifier's table. It is a total function: every DataType, including
// Unknown, maps to a class.
func (d DataType) PriorityClass() PriorityClass {
	switch d {
	case AnalogVoicePttData:
		return ClassAnalogVoicePtt
	case DigitalVoice:
		return ClassP0
	case Video:
		return ClassP1
	case File:
		return ClassP2
	case Sms:
		return ClassP3
	case Relay:
		return ClassRxRelay
	case ToL3:
		return ClassP3
	case Unknown:
		return ClassP3
	default:
		return ClassP3
	}
}

// TransmissionType is how an ApplicationMessage should be delivered.
type TransmissionType int

const (
	Unicast TransmissionType = iota
	Multicast
	Broadcast
)

func (t TransmissionType) String() string {
	switch t {
	case Unicast:
		return "Unicast"
	case Multicast:
		return "Multicast"
	case Broadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}
