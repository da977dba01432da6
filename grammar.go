package rqconsole

import (
	"bytes"
	"fmt"
	"strconv"
)

// grammar.go is the bi-directional translation between wire payloads and
// typed Command/Response values.

// formatCommand renders the payload bytes for an outbound sentence (the part
// between '$' and '*'): "<source>CMD,<id:3 digits>,<recipient>,<verb>[,params]".
func formatCommand(source, recipient Node, id int, cmd Command) []byte {
	return []byte(fmt.Sprintf("%sCMD,%03d,%s,%s", source, id%1000, recipient, cmd.payload()))
}

type sentenceKind uint8

const (
	sentenceAck sentenceKind = iota
	sentenceNak
	sentenceObg
)

// parsedSentence is the generic shape every inbound payload shares before
// command-specific parsing of its trailer.
type parsedSentence struct {
	kind      sentenceKind
	source    Node
	recipient Node
	id        int
	rest      []byte
}

// parseSentencePayload splits an inbound "<source>ACK|NAK|OBG,III,<recipient>[,...]"
// payload into its common fields. Unknown verbs are a parse error.
func parseSentencePayload(payload []byte) (parsedSentence, error) {
	s := string(payload)
	source, n, err := ParseNode(s)
	if err != nil {
		return parsedSentence{}, err
	}
	s = s[n:]

	var kind sentenceKind
	switch {
	case len(s) >= 3 && s[:3] == "ACK":
		kind, s = sentenceAck, s[3:]
	case len(s) >= 3 && s[:3] == "NAK":
		kind, s = sentenceNak, s[3:]
	case len(s) >= 3 && s[:3] == "OBG":
		kind, s = sentenceObg, s[3:]
	default:
		return parsedSentence{}, fmt.Errorf("%w: unrecognized verb in %q", ErrParse, payload)
	}

	if len(s) < 1 || s[0] != ',' {
		return parsedSentence{}, fmt.Errorf("%w: expected ',' after verb", ErrParse)
	}
	s = s[1:]
	if len(s) < 3 {
		return parsedSentence{}, fmt.Errorf("%w: truncated id field", ErrParse)
	}
	id, err := strconv.Atoi(s[:3])
	if err != nil {
		return parsedSentence{}, fmt.Errorf("%w: bad id digits %q", ErrParse, s[:3])
	}
	s = s[3:]
	if len(s) < 1 || s[0] != ',' {
		return parsedSentence{}, fmt.Errorf("%w: expected ',' after id", ErrParse)
	}
	s = s[1:]

	recipient, n, err := ParseNode(s)
	if err != nil {
		return parsedSentence{}, err
	}
	s = s[n:]

	var rest []byte
	if len(s) > 0 {
		if s[0] != ',' {
			return parsedSentence{}, fmt.Errorf("%w: expected ',' after recipient", ErrParse)
		}
		rest = []byte(s[1:])
	}

	return parsedSentence{kind: kind, source: source, recipient: recipient, id: id, rest: rest}, nil
}

// parseAckEcho verifies the echoed bytes trailing an ACK against the command
// that was sent, filling in the Response's echoed fields. Any trailing bytes
// beyond what the command type expects is ErrTrailingCharacters; a mismatched
// echo is ErrInvalidAssociation.
func parseAckEcho(cmd Command, rest []byte) (Response, error) {
	resp := Response{}
	switch cmd.Kind {
	case CommandReset:
		resp.Kind = ResponseResetAck
		return verifyEchoedByte(resp, rest, uint8(cmd.Gain))
	case CommandPing:
		resp.Kind = ResponsePingAck
		if len(rest) != 0 {
			return Response{}, ErrTrailingCharacters
		}
		return resp, nil
	case CommandLaunchSecretPartial:
		resp.Kind = ResponseLaunchSecretPartialAck
		return verifyEchoedByte(resp, rest, cmd.SecretA)
	case CommandLaunchSecretFull:
		resp.Kind = ResponseLaunchSecretFullAck
		return verifyEchoedTwoBytes(resp, rest, cmd.SecretA, cmd.SecretB)
	case CommandUnlockPyros:
		resp.Kind = ResponseUnlockPyrosAck
		if len(rest) != 0 {
			return Response{}, ErrTrailingCharacters
		}
		return resp, nil
	case CommandIgnition:
		resp.Kind = ResponseIgnitionAck
		if len(rest) != 0 {
			return Response{}, ErrTrailingCharacters
		}
		return resp, nil
	case CommandObservableGroup:
		return Response{}, fmt.Errorf("%w: observable group request does not ack", ErrParse)
	default:
		return Response{}, fmt.Errorf("%w: unknown command kind", ErrParse)
	}
}

func verifyEchoedByte(resp Response, rest []byte, want uint8) (Response, error) {
	if len(rest) != 2 {
		return Response{}, ErrTrailingCharacters
	}
	got, ok := parseHexByte(rest[0], rest[1])
	if !ok {
		return Response{}, fmt.Errorf("%w: bad echoed hex byte", ErrParse)
	}
	if got != want {
		return Response{}, ErrInvalidAssociation
	}
	resp.EchoedA = got
	return resp, nil
}

func verifyEchoedTwoBytes(resp Response, rest []byte, wantA, wantB uint8) (Response, error) {
	if len(rest) != 5 || rest[2] != ',' {
		return Response{}, ErrTrailingCharacters
	}
	gotA, ok := parseHexByte(rest[0], rest[1])
	if !ok {
		return Response{}, fmt.Errorf("%w: bad echoed hex byte A", ErrParse)
	}
	gotB, ok := parseHexByte(rest[3], rest[4])
	if !ok {
		return Response{}, fmt.Errorf("%w: bad echoed hex byte B", ErrParse)
	}
	if gotA != wantA || gotB != wantB {
		return Response{}, ErrInvalidAssociation
	}
	resp.EchoedA, resp.EchoedB = gotA, gotB
	return resp, nil
}

// parseObservableGroup parses an unsolicited "1,<...>" or "2,<...>" trailer
// into a RawObservablesGroup.
func parseObservableGroup(rest []byte) (RawObservablesGroup, error) {
	fields := bytes.Split(rest, []byte(","))
	if len(fields) < 1 {
		return RawObservablesGroup{}, fmt.Errorf("%w: empty observable group", ErrParse)
	}
	switch string(fields[0]) {
	case "1":
		if len(fields) < 4 {
			return RawObservablesGroup{}, fmt.Errorf("%w: OG1 requires clkfreq, uptime, >=1 adc channel", ErrParse)
		}
		clkfreq, err := parseHexUint32(fields[1])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		uptime, err := parseHexUint64(fields[2])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		adc := make([]int32, 0, len(fields)-3)
		for _, f := range fields[3:] {
			v, err := parseHexUint32(f)
			if err != nil {
				return RawObservablesGroup{}, err
			}
			adc = append(adc, int32(v))
		}
		return RawObservablesGroup{Group1: &ObservablesGroup1{ClockFreq: clkfreq, Uptime: uptime, ADC: adc}}, nil
	case "2":
		if len(fields) != 7 {
			return RawObservablesGroup{}, fmt.Errorf("%w: OG2 requires state, filename, anomalies, records, vbb, pyro", ErrParse)
		}
		if len(fields[1]) != 1 {
			return RawObservablesGroup{}, fmt.Errorf("%w: OG2 state must be one letter", ErrParse)
		}
		anomalies, err := parseHexUint32(fields[3])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		records, err := parseHexUint32(fields[4])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		vbb, err := parseHexUint32(fields[5])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		pyro, err := parseHexUint32(fields[6])
		if err != nil {
			return RawObservablesGroup{}, err
		}
		return RawObservablesGroup{Group2: &ObservablesGroup2{
			State:            RecorderState(fields[1][0]),
			FilenameOrError:  append([]byte(nil), fields[2]...),
			Anomalies:        anomalies,
			Records:          records,
			VoltageMillivolt: uint16(vbb),
			PyroStatus:       uint8(pyro),
		}}, nil
	default:
		return RawObservablesGroup{}, fmt.Errorf("%w: unknown observable group %q", ErrParse, fields[0])
	}
}

func parseHexUint32(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(b), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return uint32(v), nil
}

func parseHexUint64(b []byte) (uint64, error) {
	v, err := strconv.ParseUint(string(b), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return v, nil
}
