// Package wire implements the binary uplink payload shared between the
// field device and the ingest server. Both ends are deployed
// independently and there is no schema negotiation on the link, so the
// layout here is protocol-locked:
//
//	Offset 0-1  pressure hPa x100     int16, big-endian
//	Offset 2-3  gas concentration ppm int16, big-endian (raw integer)
//	Offset 4-5  temperature C x100    int16, big-endian
//	Offset 6-7  humidity % x100       int16, big-endian
//	Offset 8-9  particulate ug/m3 x100 int16, big-endian
//	Offset 10-13 packet sequence      uint32, big-endian
//
// A channel field equal to 0xFFFF (unsigned) is the "no data" sentinel
// and is never a valid measurement. Bytes past offset 13 are reserved;
// the decoder never reads them.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// PayloadLen is the number of meaningful bytes in every uplink.
	PayloadLen = 14

	// Sentinel marks a channel with no reading available.
	Sentinel = 0xFFFF

	// Scale is the fixed-point factor for all channels except gas.
	Scale = 100
)

// ErrTruncatedPayload is returned by Decode when the input is shorter
// than PayloadLen. No partial record is ever returned.
var ErrTruncatedPayload = errors.New("wire: truncated payload")

// ErrOutOfRange is returned by EncodeStrict when a scaled reading does
// not fit a signed 16-bit field.
var ErrOutOfRange = errors.New("wire: reading out of range")

// Readings are the raw sensor values sampled on the device, in the
// channel order they occupy on the wire.
type Readings struct {
	PressureHPa   float64
	GasPPM        float64 // integer-valued, transmitted unscaled
	TemperatureC  float64
	HumidityPct   float64
	ParticulateUg float64
}

// Channel is one decoded channel value. Valid is false when the field
// carried the sentinel; Value is then exactly 0, which is distinct
// from a genuine zero reading with Valid true.
type Channel struct {
	Value float64
	Valid bool
}

// Record is the decoded form of one uplink payload.
type Record struct {
	Pressure    Channel
	Gas         Channel
	Temperature Channel
	Humidity    Channel
	Particulate Channel

	// Seq is the sender-assigned packet counter, wrapping at 2^32.
	// The codec transports it; gap and duplicate detection is the
	// consumer's job.
	Seq uint32
}

// channelNames index-matches the wire layout, for strict-mode errors.
var channelNames = [5]string{"pressure", "gas", "temperature", "humidity", "particulate"}

// Encode serializes five readings and a sequence number into the
// 14-byte wire payload. Scaled channels are multiplied by 100 and
// rounded half away from zero before narrowing to 16 bits; values
// outside the int16 range wrap silently, matching the historical
// device behavior. The sentinel is never substituted on encode: a
// reading that happens to scale to 0xFFFF is emitted as-is and will
// decode as "no data".
func Encode(r Readings, seq uint32) [PayloadLen]byte {
	var buf [PayloadLen]byte
	for i, v := range scaledChannels(r) {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(int16(v)))
	}
	binary.BigEndian.PutUint32(buf[10:], seq)
	return buf
}

// EncodeStrict is Encode with wraparound rejected: it returns
// ErrOutOfRange (naming the channel) when any scaled reading does not
// fit a signed 16-bit field.
func EncodeStrict(r Readings, seq uint32) ([PayloadLen]byte, error) {
	for i, v := range scaledChannels(r) {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return [PayloadLen]byte{}, fmt.Errorf("%w: %s scaled to %d", ErrOutOfRange, channelNames[i], v)
		}
	}
	return Encode(r, seq), nil
}

// scaledChannels returns the five channel values after fixed-point
// scaling and rounding, in wire order, before 16-bit narrowing.
func scaledChannels(r Readings) [5]int64 {
	return [5]int64{
		int64(math.Round(r.PressureHPa * Scale)),
		int64(math.Round(r.GasPPM)),
		int64(math.Round(r.TemperatureC * Scale)),
		int64(math.Round(r.HumidityPct * Scale)),
		int64(math.Round(r.ParticulateUg * Scale)),
	}
}

// Decode reconstructs a Record from the first PayloadLen bytes of b.
// Trailing bytes are ignored. Returns ErrTruncatedPayload if b is
// shorter than PayloadLen; decoding cannot fail any other way.
//
// Each channel field is read as an unsigned 16-bit integer first so
// the 0xFFFF sentinel is detected before sign reinterpretation.
func Decode(b []byte) (Record, error) {
	if len(b) < PayloadLen {
		return Record{}, fmt.Errorf("%w: got %d bytes, need %d", ErrTruncatedPayload, len(b), PayloadLen)
	}
	return Record{
		Pressure:    decodeChannel(binary.BigEndian.Uint16(b[0:2]), Scale),
		Gas:         decodeChannel(binary.BigEndian.Uint16(b[2:4]), 1),
		Temperature: decodeChannel(binary.BigEndian.Uint16(b[4:6]), Scale),
		Humidity:    decodeChannel(binary.BigEndian.Uint16(b[6:8]), Scale),
		Particulate: decodeChannel(binary.BigEndian.Uint16(b[8:10]), Scale),
		Seq:         binary.BigEndian.Uint32(b[10:14]),
	}, nil
}

func decodeChannel(raw uint16, scale float64) Channel {
	if raw == Sentinel {
		return Channel{Value: 0, Valid: false}
	}
	return Channel{Value: float64(int16(raw)) / scale, Valid: true}
}
