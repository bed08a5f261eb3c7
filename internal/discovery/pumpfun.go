// Package discovery turns on-chain launch logs into candidate addresses.
package discovery

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// PumpFun is the pump.fun program ID.
const PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

const (
	programDataPrefix = "Program data: "
	pubkeyLen         = 32
	maxBorshString    = 512
)

// createEventDiscriminator is the Anchor event discriminator sha256("event:CreateEvent")[:8].
var createEventDiscriminator = anchorEventDiscriminator("CreateEvent")

func anchorEventDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("event:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

var errShortData = errors.New("event data truncated")

// CreateEvent is the pump.fun token creation event.
type CreateEvent struct {
	Name         string
	Symbol       string
	URI          string
	Mint         string
	BondingCurve string
	Creator      string
}

// ParseCreateEvents extracts CreateEvents emitted inside pump.fun invocations.
// Returns events in log order.
func ParseCreateEvents(logs []string) []CreateEvent {
	var events []CreateEvent
	depth := 0

	for _, log := range logs {
		// Track pump.fun invocation (may be CPI'd from a router)
		if strings.HasPrefix(log, "Program "+PumpFun+" invoke") {
			depth++
			continue
		}
		if strings.HasPrefix(log, "Program "+PumpFun+" success") ||
			strings.HasPrefix(log, "Program "+PumpFun+" failed") {
			if depth > 0 {
				depth--
			}
			continue
		}

		if depth == 0 || !strings.HasPrefix(log, programDataPrefix) {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(log, programDataPrefix))
		if err != nil {
			continue
		}

		if ev, err := decodeCreateEvent(data); err == nil {
			events = append(events, ev)
		}
	}

	return events
}

// decodeCreateEvent decodes discriminator + borsh(name, symbol, uri, mint, bonding_curve, user).
// Trailing fields added by newer program versions are ignored.
func decodeCreateEvent(data []byte) (CreateEvent, error) {
	if len(data) < 8 || [8]byte(data[:8]) != createEventDiscriminator {
		return CreateEvent{}, errors.New("not a create event")
	}

	r := &borshReader{data: data[8:]}
	ev := CreateEvent{
		Name:   r.string(),
		Symbol: r.string(),
		URI:    r.string(),
	}
	ev.Mint = r.pubkey()
	ev.BondingCurve = r.pubkey()
	ev.Creator = r.pubkey()

	if r.err != nil {
		return CreateEvent{}, r.err
	}
	return ev, nil
}

// borshReader reads borsh-encoded fields and records the first error.
type borshReader struct {
	data []byte
	off  int
	err  error
}

func (r *borshReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errShortData
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *borshReader) string() string {
	lenBytes := r.take(4)
	if lenBytes == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(lenBytes)
	if n > maxBorshString {
		r.err = errors.New("string too long")
		return ""
	}
	return string(r.take(int(n)))
}

func (r *borshReader) pubkey() string {
	b := r.take(pubkeyLen)
	if b == nil {
		return ""
	}
	return base58.Encode(b)
}
