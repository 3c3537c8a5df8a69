package hvac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexBool is a tri-state boolean for command fields that clients send
// in several shapes: JSON booleans, numbers, or strings such as "on",
// "off", "true", "1", "yes". Set distinguishes "field absent" from
// "field false", which matters for carry-over semantics.
type FlexBool struct {
	Set   bool
	Value bool
}

// UnmarshalJSON accepts bool, number and string forms. Unrecognised
// string values parse as false rather than failing the whole command.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	f.Set = true

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.Value = b
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value = n != 0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing boolean field: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		f.Value = true
	default:
		f.Value = false
	}
	return nil
}

// FlexString accepts either a JSON string or a bare number, so device
// ids may be sent as "3" or 3 interchangeably.
type FlexString string

// UnmarshalJSON accepts string and number forms.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing string field: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// Command is one parsed inbound command line. All fields except Cmd are
// optional; which ones matter depends on the verb.
type Command struct {
	Cmd string `json:"cmd"`

	ID FlexString `json:"id"`

	// raw verb fields
	Emitter  *int   `json:"emitter"`
	Encoding string `json:"encoding"`
	Code     string `json:"code"`
	Repeats  *int   `json:"repeats"`

	// send verb fields
	Power       FlexBool `json:"power"`
	Command     string   `json:"command"`
	Mode        string   `json:"mode"`
	Temp        *float64 `json:"temp"`
	CurrentTemp *float64 `json:"current_temp"`
	Fan         string   `json:"fan"`
	Light       FlexBool `json:"light"`

	// catalog extras forwarded to the protocol encoder
	Celsius *bool    `json:"celsius"`
	SwingV  string   `json:"swingv"`
	SwingH  string   `json:"swingh"`
	Quiet   FlexBool `json:"quiet"`
	Turbo   FlexBool `json:"turbo"`
	Econo   FlexBool `json:"econo"`
	Filter  FlexBool `json:"filter"`
	Clean   FlexBool `json:"clean"`
	Beep    FlexBool `json:"beep"`
	Sleep   *int     `json:"sleep"`
	Clock   *int     `json:"clock"`
	Model   *int     `json:"model"`
}

// ParseCommand parses one line into a Command. A missing cmd field
// defaults to send; a line that is not a JSON object at all fails with
// ErrInvalidJSON.
func ParseCommand(line []byte) (*Command, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var cmd Command
	if err := dec.Decode(&cmd); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}

	if cmd.Cmd == "" {
		cmd.Cmd = "send"
	}
	return &cmd, nil
}

// TempInt returns the command's temperature as an exact integer when it
// was supplied as one.
//
// Returns:
//   - int: The integer temperature
//   - bool: Whether temp was supplied and is a whole number
func (c *Command) TempInt() (int, bool) {
	if c.Temp == nil {
		return 0, false
	}
	t := int(*c.Temp)
	if float64(t) != *c.Temp {
		return 0, false
	}
	return t, true
}
