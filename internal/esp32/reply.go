package esp32

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusOK is the reply status for a recognized code
const StatusOK = "ok"

// Reply is a decoded classification reply
type Reply struct {
	Status   string // "" when the field is absent
	Position int    // 1-6 when status is "ok" and posicao is in range, otherwise 0
	Pretty   string // the body re-indented for display
}

// DecodeReply interprets a 200 reply body.
//
// A body that is not JSON at all wraps ErrMalformedReply. Valid JSON that is
// not usable wraps ErrUnusableReply: the body must be an object, status (if
// present) a string, and posicao (read only when status is "ok") a number.
// A position that is not an integer in [1,6] decodes to 0.
func DecodeReply(body []byte) (*Reply, error) {
	body = bytes.TrimSpace(body)

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedReply)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableReply, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is null", ErrUnusableReply)
	}

	reply := &Reply{}

	if raw, ok := fields["status"]; ok {
		if isNull(raw) {
			return nil, fmt.Errorf("%w: status is null", ErrUnusableReply)
		}
		if err := json.Unmarshal(raw, &reply.Status); err != nil {
			return nil, fmt.Errorf("%w: status is not a string", ErrUnusableReply)
		}
	}

	if reply.Status == StatusOK {
		if raw, ok := fields["posicao"]; ok {
			pos, err := decodePosition(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnusableReply, err)
			}
			reply.Position = pos
		}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	reply.Pretty = pretty.String()

	return reply, nil
}

func decodePosition(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("posicao: %w", err)
	}

	switch t := v.(type) {
	case json.Number:
		// 3.0 or 3e0 never lights a position, only a plain integer does
		n, err := strconv.Atoi(t.String())
		if err != nil || n < 1 || n > 6 {
			return 0, nil
		}
		return n, nil
	case bool:
		return 0, nil
	default:
		return 0, fmt.Errorf("posicao is not a number")
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
