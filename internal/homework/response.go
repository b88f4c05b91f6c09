package homework

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Response keys the bot relies on.
const (
	KeyHomeworks   = "homeworks"
	KeyCurrentDate = "current_date"
	KeyName        = "homework_name"
	KeyStatus      = "status"
)

// ErrMalformedBody is wrapped into an endpoint error when the body is not JSON.
var ErrMalformedBody = errors.New("response body is not valid JSON")

// StatusResponse is a decoded status API payload of any JSON shape.
// Shape checks happen in CheckResponse, not at decode time.
type StatusResponse struct {
	raw gjson.Result
}

// ParseResponse decodes body. It fails only on syntactically invalid JSON.
func ParseResponse(body []byte) (StatusResponse, error) {
	if !gjson.ValidBytes(body) {
		return StatusResponse{}, ErrMalformedBody
	}
	return StatusResponse{raw: gjson.ParseBytes(body)}, nil
}

// MustParseResponse is ParseResponse for literals in tests and examples.
func MustParseResponse(s string) StatusResponse {
	r, err := ParseResponse([]byte(s))
	if err != nil {
		panic(err)
	}
	return r
}

// Raw returns the payload as received.
func (r StatusResponse) Raw() string { return r.raw.Raw }

// CurrentDate returns the server-reported cursor. ok is false when the key is
// absent or not a number.
func (r StatusResponse) CurrentDate() (cursor int64, ok bool) {
	v := r.raw.Get(KeyCurrentDate)
	if v.Type != gjson.Number {
		return 0, false
	}
	return v.Int(), true
}

// Submission is one entry of the "homeworks" array.
type Submission struct {
	raw gjson.Result
}

// Name returns homework_name and whether the key is present.
func (s Submission) Name() (string, bool) {
	v := s.raw.Get(KeyName)
	return v.String(), v.Exists()
}

// Status returns the raw status code and whether the key is present.
func (s Submission) Status() (string, bool) {
	v := s.raw.Get(KeyStatus)
	return v.String(), v.Exists()
}

// CheckResponse validates the payload shape and returns the homeworks list
// unmodified (possibly empty).
func CheckResponse(resp StatusResponse) ([]Submission, error) {
	const op = "check_response"
	if !resp.raw.IsObject() {
		return nil, &Error{Kind: KindTypeMismatch, Op: op, Value: jsonType(resp.raw)}
	}

	homeworks := resp.raw.Get(KeyHomeworks)
	if !homeworks.Exists() {
		return nil, &Error{Kind: KindMissingField, Op: op, Field: KeyHomeworks}
	}
	if !resp.raw.Get(KeyCurrentDate).Exists() {
		return nil, &Error{Kind: KindMissingField, Op: op, Field: KeyCurrentDate}
	}
	if !homeworks.IsArray() {
		return nil, &Error{Kind: KindTypeMismatch, Op: op, Field: KeyHomeworks, Value: jsonType(homeworks)}
	}

	items := homeworks.Array()
	out := make([]Submission, 0, len(items))
	for _, it := range items {
		out = append(out, Submission{raw: it})
	}
	return out, nil
}

// ParseStatus formats the notification text for one submission.
func ParseStatus(rec Submission) (string, error) {
	const op = "parse_status"
	name, ok := rec.Name()
	if !ok {
		return "", &Error{Kind: KindMissingField, Op: op, Field: KeyName}
	}
	code, ok := rec.Status()
	if !ok {
		return "", &Error{Kind: KindMissingField, Op: op, Field: KeyStatus}
	}
	text, ok := Verdict(code).Text()
	if !ok {
		return "", &Error{Kind: KindUnknownVerdict, Op: op, Value: code}
	}
	return StatusChangedMessage(name, text), nil
}

func jsonType(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		if r.Raw == "" {
			return "nothing"
		}
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if r.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "unknown"
	}
}
