package entities

import "fmt"

// Status is the integer status code returned by every suite entry point and action.
type Status int32

// Status codes shared with plugins. Values are part of the ABI.
const (
	StatOK                    Status = 0
	StatFailed                Status = 1
	StatErrFatal              Status = 2
	StatErrUnknown            Status = 3
	StatErrMissingHostFeature Status = 4
	StatErrUnsupported        Status = 5
	StatErrExists             Status = 6
	StatErrFormat             Status = 7
	StatErrMemory             Status = 8
	StatErrBadHandle          Status = 9
	StatErrBadIndex           Status = 10
	StatErrValue              Status = 11
	StatReplyYes              Status = 12
	StatReplyNo               Status = 13
	StatReplyDefault          Status = 14
)

var statusNames = map[Status]string{
	StatOK:                    "OK",
	StatFailed:                "Failed",
	StatErrFatal:              "ErrFatal",
	StatErrUnknown:            "ErrUnknown",
	StatErrMissingHostFeature: "ErrMissingHostFeature",
	StatErrUnsupported:        "ErrUnsupported",
	StatErrExists:             "ErrExists",
	StatErrFormat:             "ErrFormat",
	StatErrMemory:             "ErrMemory",
	StatErrBadHandle:          "ErrBadHandle",
	StatErrBadIndex:           "ErrBadIndex",
	StatErrValue:              "ErrValue",
	StatReplyYes:              "ReplyYes",
	StatReplyNo:               "ReplyNo",
	StatReplyDefault:          "ReplyDefault",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Succeeded reports whether an action completed. ReplyDefault means the
// plugin did not trap the action, which hosts treat as success.
func (s Status) Succeeded() bool {
	return s == StatOK || s == StatReplyDefault
}
