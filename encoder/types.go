package encoder

import "fmt"

// Type identifies a behavioral-biometric modality.
type Type string

// The three modalities served by the encoder service.
const (
	TypeMotion  Type = "motion"
	TypeGesture Type = "gesture"
	TypeTyping  Type = "typing"
)

// Types returns all supported encoder types in a stable order.
func Types() []Type {
	return []Type{TypeMotion, TypeGesture, TypeTyping}
}

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMotion, TypeGesture, TypeTyping:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// ModelName returns the model identifier used in API responses.
func (t Type) ModelName() string {
	switch t {
	case TypeGesture:
		return "touch_encoder"
	case TypeTyping:
		return "typing_encoder"
	default:
		return string(t) + "_encoder"
	}
}

// Sample is a validated biometric sequence: rows are time steps, columns are
// feature values (IMU channels, touch coordinates, keystroke timings).
type Sample [][]float64
